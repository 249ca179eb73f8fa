package recovery

import (
	"fmt"
	"strings"

	"github.com/sipeed/picoclaw-recovery/pkg/logger"
)

// Fixed suggestion texts. None of them is ever executed.
const (
	SuggestNode        = "Node.js 未找到。安装方法: brew install node (macOS) 或访问 nodejs.org"
	SuggestPython      = "Python 未找到。安装方法: brew install python (macOS) 或访问 python.org"
	SuggestGit         = "Git 未找到或配置错误。安装方法: brew install git"
	SuggestPermission  = "权限问题，建议使用 chmod 或 chown 修改权限。"
	SuggestSyntaxError = "语法错误：请检查代码中的括号、引号、分号等是否正确闭合。"
	SuggestImportError = "导入错误：请安装所需的包或检查导入路径是否正确。"
	SuggestCodeError   = "代码错误：请检查代码逻辑和常见错误模式。"
)

// SuggestCommand is the fallback exec suggestion for an unrecognized command.
func SuggestCommand(command string) string {
	return fmt.Sprintf("命令 '%s' 执行失败。建议检查命令是否存在并先手动测试。", command)
}

// SuggestMissingFile names the missing path.
func SuggestMissingFile(path string) string {
	return fmt.Sprintf("文件 %s 不存在，建议创建该文件或检查路径。", path)
}

func execFix(call ToolCall, fb *feedback) string {
	command := call.Command()

	logger.InfoCF(component, "🔧 分析命令: "+command, nil)
	fb.line(fmt.Sprintf("🔍 分析失败的命令: `%s`", command))

	switch {
	case containsAny(command, "npm", "yarn"):
		fb.line("📦 检测到 Node.js 包管理器问题")
		fb.line("🚀 修复方案: 安装 Node.js")
		fb.line("📝 命令: `brew install node` (macOS)")
		return SuggestNode
	case containsAny(command, "python", "pip"):
		fb.line("🐍 检测到 Python 相关问题")
		fb.line("🐍 修复方案: 安装 Python")
		fb.line("📝 命令: `brew install python` (macOS)")
		return SuggestPython
	case strings.Contains(command, "git"):
		fb.line("🌿 检测到 Git 相关问题")
		fb.line("🌿 修复方案: 安装或配置 Git")
		fb.line("📝 命令: `brew install git` (macOS)")
		return SuggestGit
	default:
		fb.line("❓ 通用修复建议")
		fb.line(fmt.Sprintf("📝 失败命令: `%s`", command))
		fb.line("💡 建议: 检查命令是否存在，或手动执行测试")
		return SuggestCommand(command)
	}
}

func missingFileFix(call ToolCall, fb *feedback) string {
	path := call.FilePath()

	logger.InfoCF(component, "📁 处理缺失文件: "+path, nil)
	fb.line(fmt.Sprintf("📝 文件不存在: `%s`", path))
	fb.line("💡 建议: 考虑创建该文件或检查路径是否正确")
	return SuggestMissingFile(path)
}

func permissionFix(call ToolCall, fb *feedback) string {
	path := call.FilePath()

	logger.InfoCF(component, "🔑 处理权限问题: "+path, nil)
	fb.line(fmt.Sprintf("🚫 权限被拒绝: `%s`", path))
	fb.line("💡 建议: 考虑使用提升权限或更改文件所有权")
	return SuggestPermission
}

// codeFix re-reads the message from call.Err only; a message that arrived
// through the result's error text is reported as UnknownCodeError.
func codeFix(call ToolCall, fb *feedback) string {
	msg := UnknownCodeError
	if call.Err != nil && call.Err.Message != "" {
		msg = call.Err.Message
	}

	logger.InfoCF(component, "💻 分析代码错误: "+msg, nil)

	switch {
	case strings.Contains(msg, "SyntaxError"):
		fb.line("🔴 语法错误检测")
		fb.line("💡 修复建议: 检查括号、引号、分号是否匹配")
		return SuggestSyntaxError
	case containsAny(msg, "ImportError", "ModuleNotFoundError"):
		fb.line("📦 模块导入错误")
		fb.line("💡 修复建议: 安装缺失的包或检查导入路径")
		return SuggestImportError
	default:
		fb.line("🐛 通用代码错误")
		fb.line("💡 修复建议: 请仔细检查代码逻辑和语法")
		return SuggestCodeError
	}
}
