// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "strings"

const diffPlaceholder = "{{diff}}"

const reviewPromptTemplate = "Please perform a code review of the following diff (produced by `git diff` on my code), and provide suggestions for improvement:\n" +
	"\n" +
	"```\n" +
	diffPlaceholder + "\n" +
	"```\n" +
	"\n" +
	"Please prioritize the response by impact to the code, and please split the suggestions into three categories:\n" +
	"1. Suggestions that pertain to likely runtime bugs or errors.\n" +
	"2. Suggestions that pertain to likely logic bugs or errors.\n" +
	"3. Suggestions that pertain to likely style bugs or errors.\n" +
	"\n" +
	"If possible, please also provide a suggested fix to the identified issue. If you are unable to provide a suggested fix, please provide a reason why.\n" +
	"\n" +
	"The format should look like:\n" +
	"\n" +
	"```\n" +
	"1. Likely runtime bugs:\n" +
	"- Some suggestion...\n" +
	"- Another...\n" +
	"\n" +
	"2. Likely logic bugs:\n" +
	"- Suggestion 1\n" +
	"- Suggestion 2\n" +
	"\n" +
	"3. Likely style bugs:\n" +
	"- Suggestion 1\n" +
	"- Suggestion 2\n" +
	"```\n" +
	"\n" +
	"For each relevant code snippet, please provide context about where the suggestion is relevant (e.g., `path/file.go:30`); in addition, if a code snippet would be helpful, please provide a code snippet showing the fix.\n"

// RenderReviewPrompt embeds diff verbatim in the review instructions.
// Placeholder-like text inside diff is not expanded.
func RenderReviewPrompt(diff string) string {
	return strings.Replace(reviewPromptTemplate, diffPlaceholder, diff, 1)
}
