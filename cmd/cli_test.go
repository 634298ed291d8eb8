package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/ledgerloom/internal/schema"
)

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper that fails the test when the command errors.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func dailyOrders(days int) string {
	var b strings.Builder
	b.WriteString("Order ID,Date,Product Name,Total Amount,Customer ID,Payment Status\n")
	for i := 0; i < days; i++ {
		amount := 100 + (i%7)*15
		fmt.Fprintf(&b, "o%d,2024-05-%02d,Course,%d,c%d,paid\n", i, i+1, amount, i%6)
	}
	return b.String()
}

func TestCLI_MapReportsSynthesizedFields(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "orders.csv", "amount,product,email\n10,A,a@x.io\n25,B,b@x.io\n")
	out := runCmd(t, "map", p)
	for _, want := range []string{`"mapping_success": true`, `"customer_id"`, `"order_id"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in output:\n%s", want, out)
		}
	}
}

func TestCLI_MapRejectsIncomplete(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "orders.csv", "amount,email\n10,a@x.io\n")
	_, err := execute(t, "map", p)
	if !errors.Is(err, schema.ErrSchemaIncomplete) {
		t.Fatalf("expected incomplete schema error, got %v", err)
	}
	if !strings.Contains(err.Error(), "product_name") {
		t.Fatalf("error should name the missing field: %v", err)
	}
	out := runCmd(t, "map", p, "--allow-incomplete", "--format", "markdown")
	if !strings.Contains(out, "Status: incomplete") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCLI_MapMalformedInput(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "empty.csv", "\n\n")
	if _, err := execute(t, "map", p); err == nil {
		t.Fatalf("expected error for empty export")
	}
}

func TestCLI_RepairWritesOutput(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "orders.csv", "name,total,address\nAnn,10,12 Main St, Springfield\n")
	dst := filepath.Join(home, "fixed.csv")
	runCmd(t, "repair", p, "-o", dst)
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), `"12 Main St, Springfield"`) {
		t.Fatalf("overflow not merged:\n%s", b)
	}
}

func TestCLI_AnalyzeReusesCachedModel(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "orders.csv", dailyOrders(20))
	cacheDir := filepath.Join(home, "cache")
	args := []string{"analyze", p, "--tasks", "revenue", "--format", "json", "--periods", "3",
		"--cache-backend", "file", "--cache-dir", cacheDir}

	first := runCmd(t, args...)
	if !strings.Contains(first, `"method": "lightweight_training"`) || !strings.Contains(first, `"model_cached": true`) {
		t.Fatalf("first run did not train:\n%s", first)
	}
	if !strings.Contains(first, `"source": "Stan Store"`) {
		t.Fatalf("payment summary missing:\n%s", first)
	}
	second := runCmd(t, args...)
	if !strings.Contains(second, `"method": "cached_model"`) || !strings.Contains(second, `"cache_hit": true`) {
		t.Fatalf("second run did not reuse the cache:\n%s", second)
	}

	stats := runCmd(t, "cache", "stats", "--cache-backend", "file", "--cache-dir", cacheDir)
	if !strings.Contains(stats, "entries: 1") || !strings.Contains(stats, "- revenue: 1") {
		t.Fatalf("unexpected stats:\n%s", stats)
	}
	runCmd(t, "cache", "clear", "--cache-backend", "file", "--cache-dir", cacheDir)
	stats = runCmd(t, "cache", "stats", "--cache-backend", "file", "--cache-dir", cacheDir)
	if !strings.Contains(stats, "entries: 0") {
		t.Fatalf("cache not cleared:\n%s", stats)
	}
}

func TestCLI_AnalyzeMarkdownWithPayments(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "orders.csv", dailyOrders(3))
	pay := writeFile(t, home, "stripe.csv", "id,Amount,Amount Refunded,Fee,Net\nch_1,1000,0,59,941\n")
	out := runCmd(t, "analyze", p, "--payments", pay, "--cache-backend", "memory")
	for _, want := range []string{
		"[MAPPING REPORT]",
		"Source: Stan Store",
		"Source: Stripe",
		"[FORECAST]",
		"Method: simple_average (insufficient_data)",
		"[ANOMALIES]",
		"[SEGMENTS]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestCLI_AnalyzeRejectsUnknownTask(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "orders.csv", dailyOrders(3))
	if _, err := execute(t, "analyze", p, "--tasks", "churn", "--cache-backend", "memory"); err == nil {
		t.Fatalf("expected error for unknown task")
	}
}

func TestCLI_SignatureIgnoresRowOrder(t *testing.T) {
	home := isolate(t)
	header := "Order ID,Date,Product Name,Total Amount,Customer ID\n"
	a := writeFile(t, home, "a.csv", header+"o1,2024-01-01,A,10,c1\no2,2024-01-02,B,20,c2\n")
	b := writeFile(t, home, "b.csv", header+"o2,2024-01-02,B,20,c2\no1,2024-01-01,A,10,c1\n")
	re := regexp.MustCompile(`signature: ([0-9a-f]{32})`)
	sa := re.FindStringSubmatch(runCmd(t, "signature", a))
	sb := re.FindStringSubmatch(runCmd(t, "signature", b))
	if sa == nil || sb == nil || sa[1] != sb[1] {
		t.Fatalf("signatures differ: %v vs %v", sa, sb)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	isolate(t)
	runCmd(t, "config", "set", "forecast_periods", "3")
	runCmd(t, "config", "set", "cache_backend", "sqlite")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "forecast_periods: 3") || !strings.Contains(out, "cache_backend: sqlite") {
		t.Fatalf("unexpected config:\n%s", out)
	}
	if _, err := execute(t, "config", "set", "cache_backend", "redis"); err == nil {
		t.Fatalf("expected invalid backend to be rejected")
	}
	if _, err := execute(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
	out = runCmd(t, "config", "show")
	if !strings.Contains(out, "cache_backend: sqlite") {
		t.Fatalf("rejected value was applied:\n%s", out)
	}
}

func TestCLI_PersistentFlagsOverrideConfig(t *testing.T) {
	isolate(t)
	runCmd(t, "config", "set", "cache_backend", "sqlite")
	out := runCmd(t, "config", "show", "--cache-backend", "memory", "--debug")
	if !strings.Contains(out, "cache_backend: memory") || !strings.Contains(out, "log_level: debug") {
		t.Fatalf("flags not applied:\n%s", out)
	}
}
