package resp

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   string
		wantOk bool
	}{
		{"simple string", SimpleString("PING"), "PING", true},
		{"bulk string", BulkString("ping"), "ping", true},
		{"empty bulk string", BulkString(""), "", true},
		{"null bulk string", NullBulkString(), "", false},
		{"error", Error("ERR"), "", false},
		{"integer", Integer(1), "", false},
		{"array", Array(BulkString("x")), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Text()
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("Text() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"status", SimpleString("PONG"), "PONG"},
		{"error", Error("key not found"), "(error) key not found"},
		{"integer", Integer(3), "(integer) 3"},
		{"bulk", BulkString("a\nb"), `"a\nb"`},
		{"null bulk", NullBulkString(), "(nil)"},
		{"null array", NullArray(), "(nil)"},
		{"empty array", Array(), "(empty array)"},
		{"array", Array(BulkString("a"), Integer(2)), "1) \"a\"\n2) (integer) 2"},
		{"nested", Array(Array(BulkString("a"), BulkString("b"))), "1) 1) \"a\"\n   2) \"b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArrayWithoutItemsIsNotNull(t *testing.T) {
	empty := Array()
	if empty.Null || empty.Array == nil {
		t.Errorf("Array() should be an empty, non-null array, got %+v", empty)
	}
	if !NullArray().Null {
		t.Error("NullArray() should be null")
	}
}
