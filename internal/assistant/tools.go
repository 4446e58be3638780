package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"docassist-backend/internal/model"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolInsertDiagram    = "insert_diagram"
	ToolCreateDiagram    = "create_diagram"
	ToolCreateSuggestion = "create_suggestion"
)

// DefaultDiagramType is used when an insert_diagram call leaves diagram_type out.
const DefaultDiagramType = "flowchart"

var diagramTypes = []string{"flowchart", "sequence", "class", "er", "gantt", "pie", "mindmap"}

type toolDef struct {
	name   string
	desc   string
	params map[string]*schema.ParameterInfo
}

var toolDefs = []toolDef{
	{
		name: ToolCreateSuggestion,
		desc: "Create a document suggestion for patent claim issues",
		params: map[string]*schema.ParameterInfo{
			"originalText": {
				Type:     schema.String,
				Desc:     "The exact original text from the document that has the issue (word-for-word match)",
				Required: true,
			},
			"replaceTo": {
				Type:     schema.String,
				Desc:     "A single comprehensive replacement text that fixes all issues found in this text segment",
				Required: true,
			},
			"issues": {
				Type:     schema.Array,
				Desc:     "Array of all issues found in this text segment",
				Required: true,
				ElemInfo: &schema.ParameterInfo{
					Type: schema.Object,
					SubParams: map[string]*schema.ParameterInfo{
						"type": {
							Type:     schema.String,
							Desc:     "The type of issue: Structure, Punctuation, Antecedent Basis, Ambiguity, Broadening Dependent Claims, etc.",
							Required: true,
						},
						"severity": {
							Type:     schema.String,
							Desc:     "The severity level of the issue",
							Enum:     []string{"high", "medium", "low"},
							Required: true,
						},
						"description": {
							Type:     schema.String,
							Desc:     "Explanation of the issue with no more than 20 words",
							Required: true,
						},
					},
				},
			},
			"paragraph": {
				Type:     schema.Integer,
				Desc:     "The paragraph number (1-based index) where the issue occurs",
				Required: true,
			},
		},
	},
	{
		name: ToolCreateDiagram,
		desc: "Generate a diagram using Mermaid syntax and show it in the chat",
		params: map[string]*schema.ParameterInfo{
			"mermaid_syntax": {
				Type:     schema.String,
				Desc:     "The Mermaid diagram syntax code",
				Required: true,
			},
			"diagram_type": {
				Type:     schema.String,
				Desc:     "The type of diagram to create",
				Enum:     diagramTypes,
				Required: true,
			},
			"title": {
				Type: schema.String,
				Desc: "The title or description of the diagram",
			},
		},
	},
	{
		name: ToolInsertDiagram,
		desc: "Insert a Mermaid diagram into the document right after an exact piece of its text",
		params: map[string]*schema.ParameterInfo{
			"insert_after_text": {
				Type:     schema.String,
				Desc:     "Exact text from the document after which the diagram is inserted; keep it short and unique",
				Required: true,
			},
			"mermaid_syntax": {
				Type:     schema.String,
				Desc:     "The Mermaid diagram syntax code",
				Required: true,
			},
			"diagram_type": {
				Type: schema.String,
				Desc: "The type of diagram to insert",
				Enum: diagramTypes,
			},
			"title": {
				Type: schema.String,
				Desc: "The title of the diagram",
			},
		},
	},
}

// Tools lists the function tools offered to the model.
func Tools() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(toolDefs))
	for _, def := range toolDefs {
		infos = append(infos, &schema.ToolInfo{
			Name:        def.name,
			Desc:        def.desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(def.params),
		})
	}
	return infos
}

func lookupToolDef(name string) (toolDef, bool) {
	for _, def := range toolDefs {
		if def.name == name {
			return def, true
		}
	}
	return toolDef{}, false
}

type diagramArgs struct {
	InsertAfterText string `json:"insert_after_text"`
	MermaidSyntax   string `json:"mermaid_syntax"`
	DiagramType     string `json:"diagram_type"`
	Title           string `json:"title"`
}

func parseDiagramArgs(arguments string) (diagramArgs, error) {
	var args diagramArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return args, fmt.Errorf("decode diagram arguments: %w", err)
	}
	return args, nil
}

func (a diagramArgs) insertion() model.DiagramInsertion {
	diagramType := a.DiagramType
	if diagramType == "" {
		diagramType = DefaultDiagramType
	}
	return model.DiagramInsertion{
		InsertAfterText: a.InsertAfterText,
		MermaidSyntax:   a.MermaidSyntax,
		DiagramType:     diagramType,
		Title:           a.Title,
	}
}

type suggestionArgs struct {
	OriginalText string        `json:"originalText"`
	ReplaceTo    string        `json:"replaceTo"`
	Issues       []model.Issue `json:"issues"`
	Paragraph    *int          `json:"paragraph"`

	// single-issue form
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

var severityRank = map[string]int{"high": 3, "medium": 2, "low": 1}

func rank(severity string) int {
	if r, ok := severityRank[severity]; ok {
		return r
	}
	return severityRank["medium"]
}

// parseSuggestion folds every issue of one create_suggestion call into a single Suggestion.
// ok is false when the call carries no issue at all.
func parseSuggestion(arguments string) (s model.Suggestion, ok bool, err error) {
	var args suggestionArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return s, false, fmt.Errorf("decode suggestion arguments: %w", err)
	}

	issues := args.Issues
	if len(issues) == 0 && args.Type != "" {
		severity := args.Severity
		if severity == "" {
			severity = "medium"
		}
		issues = []model.Issue{{Type: args.Type, Severity: severity, Description: args.Description}}
	}
	if len(issues) == 0 {
		return s, false, nil
	}

	types := make([]string, len(issues))
	descriptions := make([]string, len(issues))
	severity := ""
	for i := range issues {
		if issues[i].Severity == "" {
			issues[i].Severity = "medium"
		}
		types[i] = issues[i].Type
		descriptions[i] = issues[i].Description
		if severity == "" || rank(issues[i].Severity) > rank(severity) {
			severity = issues[i].Severity
		}
	}

	paragraph := 1
	if args.Paragraph != nil {
		paragraph = *args.Paragraph
	}

	return model.Suggestion{
		Type:         strings.Join(types, " & "),
		Severity:     severity,
		Paragraph:    paragraph,
		Description:  strings.Join(descriptions, " | "),
		Text:         args.OriginalText,
		Suggestion:   args.ReplaceTo,
		OriginalText: args.OriginalText,
		ReplaceTo:    args.ReplaceTo,
		Issues:       issues,
	}, true, nil
}
