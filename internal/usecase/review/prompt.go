package review

import (
	"fmt"
	"strings"

	"github.com/mshafer/prreview/internal/adapter/llm"
	"github.com/mshafer/prreview/internal/diff"
)

// systemPrompt is the base instruction set for the reviewing model. The
// format rules matter more than the review principles: a reply that uses
// diff fences or comments on unmodified lines is unusable downstream.
const systemPrompt = `You are an experienced senior code reviewer, specialized in ensuring software quality, security, and maintainability.

# OBJECTIVE
Analyze code changes in the pull request and provide constructive technical feedback, identifying real issues and suggesting concrete improvements.

# LANGUAGE
- ALL suggestions, comments, and feedback must be written in US English (en-US)
- Use appropriate technical terminology
- Be clear, objective, and professional

# REVIEW PRINCIPLES
- Code quality: SOLID and DRY adherence, code smells, readability, naming
- Security: injection, XSS, input validation, sensitive data exposure, access control
- Performance: inefficient operations, algorithmic complexity, resource usage
- Testing and reliability: untested critical changes, edge cases, error handling
- Architecture: separation of concerns, coupling, adherence to project patterns
- Documentation: complex code should be documented

# CRITICAL FORMAT RULES

1. FORBIDDEN: never use code blocks marked as ` + "```diff" + `
2. REQUIRED: use EXCLUSIVELY the ` + "```suggestion" + ` block to propose code changes
3. CONTENT: the ` + "```suggestion" + ` block must contain ONLY the final correct code that will replace the original lines
4. NO MARKERS: do not include +, -, or other diff markers inside the ` + "```suggestion" + ` block

For comments without a specific code change, use plain markdown text without code blocks.

# REVIEW SCOPE
- ONLY review ADDED lines (marked with + in the diff)
- Line numbers must match the NEW file line numbers
- Ignore removed or unmodified lines
- Contextualize your feedback with the PR purpose

# WHEN TO COMMENT
- Security issues (always)
- Bugs or incorrect behavior (always)
- Violations of project standards (always)
- Significant quality improvements (when applicable)

# WHEN NOT TO COMMENT
- Personal style preferences
- Trivial cosmetic changes
- Code that already exists and was not modified
- Suggestions outside the PR scope

# PROJECT RULES
If specific project rules are provided, they have MAXIMUM PRIORITY over these general guidelines. Apply them rigorously.`

// BuildSystemMessage assembles the full system message from the base
// prompt, optional project rules, and optional extra instructions.
func BuildSystemMessage(projectRules, instructions string) string {
	parts := []string{systemPrompt}

	if projectRules != "" {
		parts = append(parts, fmt.Sprintf("---\nPROJECT RULES:\n%s\n---", projectRules))
	}
	if instructions != "" {
		parts = append(parts, fmt.Sprintf("---\nADDITIONAL INSTRUCTIONS:\n%s\n---", instructions))
	}

	return strings.Join(parts, "\n\n")
}

// BuildUserMessage assembles the per-file user message with PR context.
func BuildUserMessage(prTitle, prBody, fileContext string) string {
	return strings.Join([]string{
		"Review this pull request change:",
		"PR Title: " + prTitle,
		"PR Description: " + prBody,
		fileContext,
	}, "\n\n")
}

// FileDiffContext renders one file's hunks back into unified diff text for
// the prompt, truncated to the token budget. Hunk headers are kept so the
// model can compute new-file line numbers.
func FileDiffContext(f diff.File, maxTokens int) string {
	var sb strings.Builder

	for _, h := range f.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		if h.Section != "" {
			sb.WriteString(" ")
			sb.WriteString(h.Section)
		}
		sb.WriteString("\n")
		for _, line := range h.Lines {
			switch line.Kind {
			case diff.LineAdded:
				sb.WriteString("+")
			case diff.LineRemoved:
				sb.WriteString("-")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(line.Content)
			sb.WriteString("\n")
		}
	}

	diffText := llm.TruncateToTokens(sb.String(), maxTokens)
	if !strings.HasSuffix(diffText, "\n") {
		diffText += "\n"
	}

	return fmt.Sprintf("File: %s\nChanges:\n```\n%s```\n", f.Path(), diffText)
}
