package cliutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
)

// GetOutput returns the output format with priority: flag > env > config > default.
func GetOutput(cmd *cobra.Command) string {
	if flag := cmd.Flag("output"); flag != nil && flag.Changed {
		return flag.Value.String()
	}
	return config.GetDefaultOutput()
}

// OutputJSON marshals v to indented JSON and prints it to stdout.
func OutputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// MaskSecret hides a password or token for display, keeping the first 3
// and last 4 characters of long values.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) >= 11 {
		return s[:3] + "..." + s[len(s)-4:]
	}
	return "****"
}

// ParseIndexList turns "1,3,5" into zero-based indices below n. Duplicates
// are dropped, out-of-range numbers are reported as warnings, anything
// non-numeric is an error.
func ParseIndexList(list string, n int) (indices []int, warnings []string, err error) {
	seen := make(map[int]bool)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num, convErr := strconv.Atoi(part)
		if convErr != nil {
			return nil, nil, fmt.Errorf("invalid index %q", part)
		}
		if num < 1 || num > n {
			warnings = append(warnings, fmt.Sprintf("index %d is out of range (1-%d), skipped", num, n))
			continue
		}
		if seen[num] {
			continue
		}
		seen[num] = true
		indices = append(indices, num-1)
	}
	return indices, warnings, nil
}

// Confirm asks a yes/no question and reads the answer from in.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// FormatDuration formats a run duration (e.g., "850ms", "12.3s", "2m5s").
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

// FormatRelativeTime formats a time as a human-readable relative string (e.g., "just now", "5m ago").
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
