package ingest

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/pfennig-app/pfennig/internal/model"
)

var (
	// Some banks emit mixed-case SEVERITY values; the parser requires
	// uppercase.
	ofxSeverityFix = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// SGML-style exports occasionally drop the closing angle bracket on a
	// tag that ends the line.
	ofxUnclosedTagFix = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting quirks in real-world OFX exports
// before handing the document to the parser.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = ofxSeverityFix.ReplaceAllStringFunc(content, strings.ToUpper)
	content = ofxUnclosedTagFix.ReplaceAllString(content, "$1>")
	return content
}

// ReadOFXDrafts parses an OFX/QFX statement file into ingestion drafts.
// Bank and credit card statements are both supported; the drafts flow
// through the same pipeline as CSV rows, so dedup and rule application
// are entry-point independent.
func ReadOFXDrafts(r io.Reader, sourceFile string) ([]model.TransactionDraft, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var drafts []model.TransactionDraft

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			drafts = append(drafts, draftsFromOFX(stmt.BankTranList.Transactions, sourceFile)...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			drafts = append(drafts, draftsFromOFX(stmt.BankTranList.Transactions, sourceFile)...)
		}
	}

	return drafts, nil
}

func draftsFromOFX(transactions []ofxgo.Transaction, sourceFile string) []model.TransactionDraft {
	drafts := make([]model.TransactionDraft, 0, len(transactions))
	for _, tran := range transactions {
		description := strings.TrimSpace(string(tran.Name))
		details := strings.TrimSpace(string(tran.Memo))
		if description == "" {
			description = details
			details = ""
		}
		if description == "" {
			continue
		}

		drafts = append(drafts, model.TransactionDraft{
			Date:        tran.DtPosted.Time,
			Description: description,
			Details:     details,
			Amount:      decimal.NewFromBigRat(&tran.TrnAmt.Rat, 2),
			SourceFile:  sourceFile,
		})
	}
	return drafts
}
