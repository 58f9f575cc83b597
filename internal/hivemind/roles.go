// Package hivemind implements the multi-agent consensus engine: a set of
// specialized agent roles executed in sequence against one task, with
// budget/time checkpoints, a pairwise consensus score, and a deterministic
// merged output.
package hivemind

import (
	"strings"

	"github.com/apiarylabs/apiary/pkg/models"
)

// Role identifies a specialized agent within the hive mind.
type Role string

const (
	RoleArchitect      Role = "Architect"
	RoleCoder          Role = "Coder"
	RoleReviewer       Role = "Reviewer"
	RoleTester         Role = "Tester"
	RoleDocumenter     Role = "Documenter"
	RoleDebugger       Role = "Debugger"
	RoleSecurity       Role = "Security"
	RoleOutputReviewer Role = "OutputReviewer"
	RoleTaskVerifier   Role = "TaskVerifier"
)

// AllRoles lists every role in execution order.
func AllRoles() []Role {
	return []Role{
		RoleArchitect, RoleCoder, RoleReviewer, RoleTester, RoleDebugger,
		RoleSecurity, RoleDocumenter, RoleOutputReviewer, RoleTaskVerifier,
	}
}

var roleOrder = map[Role]int{
	RoleArchitect:      0,
	RoleCoder:          1,
	RoleReviewer:       2,
	RoleTester:         3,
	RoleDebugger:       4,
	RoleSecurity:       5,
	RoleDocumenter:     6,
	RoleOutputReviewer: 7,
	RoleTaskVerifier:   8,
}

// ExecutionOrder returns the role's position in the fixed pipeline.
// The architect always runs first so later roles can build on its plan.
func (r Role) ExecutionOrder() int {
	return roleOrder[r]
}

// Tier returns the model tier the role defaults to.
func (r Role) Tier() models.ModelTier {
	switch r {
	case RoleArchitect, RoleSecurity:
		return models.TierPremium
	case RoleCoder, RoleReviewer, RoleTester, RoleDebugger:
		return models.TierMid
	default:
		return models.TierBudget
	}
}

// SystemPrompt returns the role's system prompt.
func (r Role) SystemPrompt() string {
	switch r {
	case RoleArchitect:
		return "You are a software architect. Analyze requirements and design clean, scalable solutions. Break down complex tasks into smaller subtasks. Consider patterns, trade-offs, and maintainability."
	case RoleCoder:
		return "You are an expert programmer. Write clean, efficient, well-tested code. Follow the project's coding conventions. Implement exactly what is specified."
	case RoleReviewer:
		return "You are a code reviewer. Check for bugs, logic errors, style violations, and potential improvements. Be thorough but constructive. Focus on correctness and maintainability."
	case RoleTester:
		return "You are a testing expert. Write comprehensive tests covering happy paths, edge cases, and error conditions. Ensure adequate coverage. Run tests and report results."
	case RoleDocumenter:
		return "You are a technical writer. Generate clear, accurate documentation. Include examples, parameter descriptions, and usage guides. Keep documentation in sync with code."
	case RoleDebugger:
		return "You are a debugging expert. Analyze error messages, stack traces, and logs. Identify root causes systematically. Propose targeted fixes."
	case RoleSecurity:
		return "You are a security auditor. Check for injection vulnerabilities, data leaks, insecure defaults, and OWASP top 10 issues. Recommend specific mitigations."
	case RoleOutputReviewer:
		return "You are an output quality reviewer. Verify that generated content is accurate, complete, well-formatted, and meets the stated requirements."
	case RoleTaskVerifier:
		return "You are a task verification agent. Compare deliverables against the original requirements. Check that all acceptance criteria are met. Report any gaps."
	default:
		return "You are a helpful software engineering agent."
	}
}

// roleKeywords maps each optional role to the task keywords that activate it.
var roleKeywords = map[Role][]string{
	RoleCoder:        {"code", "implement", "write", "function", "class", "module"},
	RoleReviewer:     {"review", "check", "audit"},
	RoleTester:       {"test", "spec", "validate"},
	RoleDocumenter:   {"document", "docs", "readme"},
	RoleDebugger:     {"debug", "fix", "error", "bug"},
	RoleSecurity:     {"security", "vulnerab", "injection"},
	RoleTaskVerifier: {"verify", "complete"},
}

// ClassifyTaskRoles picks the roles relevant to a task by keyword match.
// The architect is always included.
func ClassifyTaskRoles(task string) []Role {
	lower := strings.ToLower(task)
	selected := []Role{RoleArchitect}

	for _, role := range AllRoles() {
		keywords, ok := roleKeywords[role]
		if !ok {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				selected = append(selected, role)
				break
			}
		}
	}
	return selected
}
