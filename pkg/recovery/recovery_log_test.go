package recovery

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/picoclaw-recovery/pkg/logger"
	"github.com/sipeed/picoclaw-recovery/pkg/providers"
)

func captureLog(t *testing.T, level logger.LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut := log.Writer()
	prevLevel := logger.GetLevel()
	log.SetOutput(&buf)
	logger.SetLevel(level)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		logger.SetLevel(prevLevel)
	})
	return &buf
}

func logLines(buf *bytes.Buffer) []string {
	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestAfterToolCall_LogsPerPath(t *testing.T) {
	tests := []struct {
		name     string
		call     ToolCall
		path     Path
		pathLine string
	}{
		{
			name:     "exec",
			call:     failed("exec", "bash: foo: command not found", map[string]any{"command": "foo"}),
			path:     PathExec,
			pathLine: "🔧 分析命令: foo",
		},
		{
			name:     "missing file",
			call:     failed("read", "No such file or directory", map[string]any{"path": "/tmp/x"}),
			path:     PathMissingFile,
			pathLine: "📁 处理缺失文件: /tmp/x",
		},
		{
			name:     "permission",
			call:     failed("write", "Permission denied", map[string]any{"file_path": "/etc/y"}),
			path:     PathPermission,
			pathLine: "🔑 处理权限问题: /etc/y",
		},
		{
			name:     "code",
			call:     failed("exec", "TypeError: x is undefined", nil),
			path:     PathCode,
			pathLine: "💻 分析代码错误: TypeError: x is undefined",
		},
		{
			name: "generic",
			call: failed("list", "Disk Quota Exceeded", nil),
			path: PathGeneric,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t, logger.INFO)

			advice := New(DefaultOptions()).AfterToolCall(tt.call)
			require.Equal(t, tt.path, advice.Path)

			lines := logLines(buf)
			want := 2
			if tt.pathLine != "" {
				want = 3
			}
			require.Len(t, lines, want, buf.String())

			for _, line := range lines {
				assert.Contains(t, line, "[INFO] error-recovery:")
			}
			assert.Contains(t, lines[0], "🔍 检测到 "+tt.call.ToolName+" 工具执行失败:")
			assert.Contains(t, lines[1], "    错误信息: "+tt.call.Err.Message)
			if tt.pathLine != "" {
				assert.Contains(t, lines[2], tt.pathLine)
			}
		})
	}
}

func TestAfterToolCall_SuccessLogsNothing(t *testing.T) {
	buf := captureLog(t, logger.DEBUG)

	advice := New(DefaultOptions()).AfterToolCall(ToolCall{ToolName: "exec", Result: &Outcome{Status: "ok"}})

	assert.False(t, advice.Triggered)
	assert.Empty(t, buf.String())
}

func TestAgentEnd_Logs(t *testing.T) {
	h := New(DefaultOptions())

	buf := captureLog(t, logger.INFO)
	h.AgentEnd(nil)
	h.AgentEnd([]providers.Message{{Role: "tool", Content: "all good"}})
	assert.Empty(t, buf.String())

	h.AgentEnd([]providers.Message{
		{Role: "tool", Content: "error: exit status 1"},
		{Role: "tool", Content: "🔧 **" + FixMarker + "中...**"},
	})
	lines := logLines(buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[INFO] error-recovery: 📊 会话结束统计")
	assert.Contains(t, lines[0], "errors=1")
	assert.Contains(t, lines[0], "fix_attempts=1")
}

func TestBeforeToolCall_LogsOnlyAtDebug(t *testing.T) {
	h := New(DefaultOptions())
	call := ToolCall{ToolName: "exec", Params: map[string]any{"command": "sudo reboot"}}

	buf := captureLog(t, logger.INFO)
	require.True(t, h.BeforeToolCall(call).Triggered)
	assert.Empty(t, buf.String())

	logger.SetLevel(logger.DEBUG)
	h.BeforeToolCall(call)
	assert.Contains(t, buf.String(), "[DEBUG] error-recovery: high-risk command")
}
