package assistant

import (
	"fmt"
	"strings"
)

type rule struct {
	name string
	text string
}

var reviewRules = []rule{
	{
		name: "Structure",
		text: `A patent claim is traditionally written as a single sentence in present tense. Each claim begins with a capital letter and ends with a period. Periods may not be used elsewhere in the claims (other than abbreviations). Semicolons are usually used to separate clauses and phrases. A claim is broken into a preamble (for example "An apparatus"), a transitional phrase (for example "comprising") and a body. Open-ended transitional phrases such as "comprising", "containing" and "characterized by" do not exclude additional elements. Closed phrases such as "consisting of" limit the claim and should rarely be used.`,
	},
	{
		name: "Punctuation",
		text: `A comma typically separates the preamble from the transitional phrase and a colon separates the transition from the body. The elements of the body are separated by semicolons and the penultimate element is followed by "; and" before the last ends with a full stop. For example:
An apparatus, comprising:
- a plurality of printed pages;
- a binding configured to hold the printed pages together; and
- a cover attached to the binding.`,
	},
	{
		name: "Antecedent Basis",
		text: `An element is introduced with the indefinite article "a" or "an" on its first use. When referring back to that element, the definite article "the" is used. For example:
A device, comprising:
- a pencil; and
- a light attached to the pencil.
2. The device recited in claim 1 wherein the light is detachably attached to the pencil.`,
	},
	{
		name: "Ambiguity and Indefinite Issues",
		text: `Claims must distinctly define the subject matter using neither vague nor indefinite terms. Subjective terms such as "long", "effective", "bright" and "near" make the scope of a claim unclear. For example, "a long pencil having two ends; an effective eraser attached to one end of the pencil; and a bright light attached near a center of the pencil" is invalid.`,
	},
	{
		name: "Broadening Dependent Claims",
		text: `Dependent claims must always be narrower than the claim they depend from. A dependent claim that contradicts or fails to further narrow its independent claim is improper. For example, if claim 1 recites that the light is detachably attached to the pencil, a claim 2 reciting that the light is permanently attached is improper.`,
	},
}

func rulesText() string {
	var sb strings.Builder
	for _, r := range reviewRules {
		fmt.Fprintf(&sb, "%s: %s\n\n", r.name, r.text)
	}
	return sb.String()
}

var reviewPrompt = `Your job is to review the "Claims" section of a patent document. You must comment on its strength, and decide whether it passes a set of rules.
If it does not pass a given rule, suggest a change that would make it pass.

The claims are the most important section of a patent. They define the scope of protection, must be clear and concise, must be supported by the detailed description, and must be written in a particular format. For example, below is a sample claim.
An apparatus, comprising:
- a pencil having an elongated structure with two ends and a center therebetween;
- an eraser attached to one end of the pencil; and
- a light attached to the center of the pencil.

Here are the rules you should check for:

` + rulesText() + `IMPORTANT: You must thoroughly review the entire document and identify ALL issues you find. For EACH piece of text that has issues, call the ` + ToolCreateSuggestion + ` function ONCE, providing:
1. The exact original text (originalText)
2. A SINGLE comprehensive correction (replaceTo) that fixes ALL issues at once
3. An array of all issues found in that text segment

For example, if "a eraser" has both antecedent basis and ambiguity issues, provide ONE correction like "an effective eraser" that addresses both problems.

When a diagram would clarify a claim, call ` + ToolInsertDiagram + ` with a short, exact piece of the document text to anchor it.`

const chatPromptTemplate = `You are a patent drafting assistant working inside a document editor. Answer questions about the document below, explain claim issues and help the user improve the text.

Diagrams:
- To show a diagram in the chat only, call ` + ToolCreateDiagram + `.
- To place a diagram inside the document, call ` + ToolInsertDiagram + `. Set insert_after_text to a short piece of text copied exactly from the document; the diagram is inserted right after its first occurrence.
- Write diagrams in Mermaid syntax.

Current document:
"""
%s
"""

The user's latest request:
"""
%s
"""`

// chatSystemPrompt embeds the document text and the latest user message.
func chatSystemPrompt(documentText, lastUserMessage string) string {
	if strings.TrimSpace(documentText) == "" {
		documentText = "(no document is open)"
	}
	return fmt.Sprintf(chatPromptTemplate, documentText, lastUserMessage)
}
