//go:build linux

package pty

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"
)

// alive reports whether pid exists and is not a zombie.
func alive(pid int) bool {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return false
	}
	// The state field follows the parenthesised command name.
	stat := string(data)
	i := strings.LastIndexByte(stat, ')')
	if i < 0 || i+2 >= len(stat) {
		return false
	}
	return stat[i+2] != 'Z'
}

func TestTerminate_KillsBackgroundJobs(t *testing.T) {
	requireShell(t)
	tests := []struct {
		name   string
		runner Runner
	}{
		{"pipe", PipeRunner{}},
		{"pty", &CreackPTY{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.runner.Start(context.Background(), exec.Command("/bin/sh", "-c", "sleep 30 & echo $!; wait"))
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			line, err := bufio.NewReader(p.Output()).ReadString('\n')
			if err != nil {
				t.Fatalf("read job pid: %v", err)
			}
			job, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				t.Fatalf("job pid %q: %v", line, err)
			}
			if !alive(job) {
				t.Fatalf("job %d not running before Terminate", job)
			}

			if err := p.Terminate(); err != nil {
				t.Fatalf("Terminate() error = %v", err)
			}
			_ = p.Wait()

			deadline := time.Now().Add(5 * time.Second)
			for alive(job) {
				if time.Now().After(deadline) {
					t.Fatalf("background job %d survived Terminate", job)
				}
				time.Sleep(20 * time.Millisecond)
			}
		})
	}
}
