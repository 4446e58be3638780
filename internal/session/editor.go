package session

import (
	"fmt"

	"docassist-backend/internal/document"
	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"
)

// InsertResult reports the outcome of one proposal.
type InsertResult struct {
	Insertion model.DiagramInsertion
	Inserted  bool
}

// ApplyInsertions anchors each proposal in order against the document as edited by the
// previous ones. Proposals whose fragment is not found are skipped.
func ApplyInsertions(content string, insertions []model.DiagramInsertion) (string, []InsertResult, error) {
	doc, err := document.FromHTML(content)
	if err != nil {
		return content, nil, fmt.Errorf("parse document: %w", err)
	}

	results := make([]InsertResult, 0, len(insertions))
	applied := 0
	for _, ins := range insertions {
		ok := doc.InsertDiagramAfter(ins.InsertAfterText, ins.MermaidSyntax, ins.Title)
		if ok {
			applied++
		} else {
			logger.Warnf("Diagram anchor not found: %q", ins.InsertAfterText)
		}
		results = append(results, InsertResult{Insertion: ins, Inserted: ok})
	}

	if applied == 0 {
		return content, results, nil
	}
	return doc.HTML(), results, nil
}

// Editor applies diagram proposals to the current document of a view.
type Editor struct {
	view *View
}

func NewEditor(view *View) *Editor {
	return &Editor{view: view}
}

// Apply inserts the proposals into the current document and returns how many were placed.
func (e *Editor) Apply(insertions []model.DiagramInsertion) (int, error) {
	if e.view.Current() == nil {
		return 0, ErrNoDocument
	}

	updated, results, err := ApplyInsertions(e.view.Content(), insertions)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, r := range results {
		if r.Inserted {
			applied++
		}
	}
	if applied > 0 {
		if err := e.view.SetContent(updated); err != nil {
			return 0, err
		}
	}

	logger.Infof("Applied %d of %d diagram proposals", applied, len(insertions))
	return applied, nil
}
