package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for rKV servers",
		Long:    "Runs SET, GET, ECHO and PING load against a server and reports throughput and latency percentiles.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)

	// perfPercentiles are reported for every test
	perfPercentiles = []float64{0.5, 0.95, 0.99}
)

// perfResult combines the throughput measured by testing.Benchmark with the latency
// distribution of the single requests
type perfResult struct {
	bench   testing.BenchmarkResult
	latency gometrics.Timer
	errors  gometrics.Counter
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfNumThreads = max(1, viper.GetInt("threads"))
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for rKV servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	registry := gometrics.NewRegistry()
	results := make(map[string]perfResult)
	order := make([]string, 0)

	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	tests := []struct {
		name    string
		prepare func(iter func(func(string)))
		op      func(key string) error
	}{
		{
			name: "ping",
			op:   func(string) error { return rpcClient.Ping() },
		},
		{
			name: "echo",
			op: func(key string) error {
				_, err := rpcClient.Echo([]byte(key))
				return err
			},
		},
		{
			name: "set",
			op:   func(key string) error { return rpcClient.Set(key, []byte("test")) },
		},
		{
			name: "set-ttl",
			op:   func(key string) error { return rpcClient.SetE(key, []byte("test"), 60_000) },
		},
		{
			name: "set-large",
			op:   func(key string) error { return rpcClient.Set(key, largeValue) },
		},
		{
			name:    "get",
			prepare: setAll,
			op: func(key string) error {
				_, _, err := rpcClient.Get(key)
				return err
			},
		},
		{
			name: "get-missing",
			op: func(key string) error {
				_, _, err := rpcClient.Get(key + "-missing")
				return err
			},
		},
		{
			name:    "mixed",
			prepare: setAll,
			op: func(key string) error {
				// odd keys are written, even keys are read
				if n := len(key); n > 0 && key[n-1]%2 == 1 {
					return rpcClient.Set(key, []byte("test"))
				}
				_, _, err := rpcClient.Get(key)
				return err
			},
		},
	}

	for _, test := range tests {
		if shouldSkip(test.name) {
			printSkipped(test.name)
			continue
		}

		result := perfResult{
			latency: gometrics.NewTimer(),
			errors:  gometrics.NewCounter(),
		}
		_ = registry.Register(test.name+".latency", result.latency)
		_ = registry.Register(test.name+".errors", result.errors)

		getKey, iter := getKeys(test.name)
		if test.prepare != nil {
			test.prepare(iter)
		}

		op := test.op
		name := test.name
		result.bench = testing.Benchmark(func(b *testing.B) {
			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					start := time.Now()
					err := op(getKey(counter))
					result.latency.UpdateSince(start)
					if err != nil {
						result.errors.Inc(1)
						log.Printf("(%s) - error: %v\n", name, err)
					}
					counter++
				}
			})
		})

		results[test.name] = result
		order = append(order, test.name)
		printResult(test.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, order, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// setAll stores a value for every test key
func setAll(iter func(func(string))) {
	iter(func(k string) {
		if err := rpcClient.Set(k, []byte("test")); err != nil {
			log.Printf("error setting key %s: %v\n", k, err)
		}
	})
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

func printSkipped(test string) {
	fmt.Printf("%-14sskipped\n", test)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.bench.NsPerOp() == 0 {
		printSkipped(test)
		return
	}

	nsPerOp := math.Max(float64(result.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	ps := result.latency.Percentiles(perfPercentiles)

	// Print the formatted result
	fmt.Printf("%-14s%.0f ops/sec\tp50=%s p95=%s p99=%s\terrors=%d\n",
		test, opsPerSec,
		time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]),
		result.errors.Count())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, order []string, results map[string]perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "OpsPerSec", "Requests", "Errors",
		"MeanLatencyNs", "P50LatencyNs", "P95LatencyNs", "P99LatencyNs", "MaxLatencyNs",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, test := range order {
		result := results[test]

		var opsPerSec float64
		nsPerOp := float64(result.bench.NsPerOp())
		if nsPerOp > 0 {
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}
		ps := result.latency.Percentiles(perfPercentiles)

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			fmt.Sprintf("%.0f", opsPerSec),
			strconv.FormatInt(result.latency.Count(), 10),
			strconv.FormatInt(result.errors.Count(), 10),
			fmt.Sprintf("%.0f", result.latency.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(result.latency.Max(), 10),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
