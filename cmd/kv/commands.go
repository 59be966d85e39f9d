package kv

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/spf13/cobra"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.Ping(); err != nil {
				return err
			}
			fmt.Println("PONG")
			return nil
		},
	}
	echoCmd = &cobra.Command{
		Use:   "echo [message]",
		Short: "Sends a message that the server returns unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := rpcClient.Echo([]byte(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(string(msg))
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key, optionally with a ttl",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]

			ttl, _ := cmd.Flags().GetUint64("ttl")
			ex, _ := cmd.Flags().GetUint64("ex")
			if ttl > 0 && ex > 0 {
				return fmt.Errorf("--ttl and --ex are mutually exclusive")
			}
			if ex > 0 {
				ttl = ex * 1000
			}

			var err error
			if ttl > 0 {
				err = rpcClient.SetE(key, []byte(value), ttl)
			} else {
				err = rpcClient.Set(key, []byte(value))
			}
			if err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, status, err := rpcClient.Get(key)
			if err != nil {
				return err
			}
			switch status {
			case db.StatusFound:
				fmt.Printf("key=%s, status=%s, value=%s\n", key, status, strconv.Quote(string(value)))
			default:
				fmt.Printf("key=%s, status=%s\n", key, status)
			}
			return nil
		},
	}
	rawCmd = &cobra.Command{
		Use:   "raw [command] [args...]",
		Short: "Sends an arbitrary command and prints the raw reply",
		Long: fmt.Sprintf(`Sends an arbitrary command and prints the raw reply.
Supported commands are %s, %s, %s and %s, anything else is answered with an error.`,
			common.CmdPing, common.CmdEcho, common.CmdSet, common.CmdGet),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := rpcClient.Do(args...)
			if err != nil {
				return err
			}
			fmt.Println(reply.String())
			return nil
		},
	}
)

func init() {
	setCmd.Flags().Uint64("ttl", 0, "Time to live in milliseconds (0 = no ttl)")
	setCmd.Flags().Uint64("ex", 0, "Time to live in seconds (0 = no ttl)")
}
