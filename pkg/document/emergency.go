package document

import (
	"fmt"
	"io"
	"strings"
	"time"

	"proposal-intake-be/pkg/markup"
)

// EmergencyNotice is the fixed content of the fallback document.
type EmergencyNotice struct {
	CompanyName string
	ClientName  string
	Sector      string
	Date        time.Time
	ContactLine string
}

func (n EmergencyNotice) blocks() []markup.Block {
	company := strings.TrimSpace(n.CompanyName)
	if company == "" {
		company = "Water Treatment"
	}
	client := strings.TrimSpace(n.ClientName)
	if client == "" {
		client = "Client"
	}
	sector := strings.TrimSpace(n.Sector)
	if sector == "" {
		sector = "Not specified"
	}
	date := n.Date
	if date.IsZero() {
		date = time.Now()
	}
	contact := strings.TrimSpace(n.ContactLine)
	if contact == "" {
		contact = "our support team"
	}

	para := func(text string) markup.Block {
		return markup.Block{Kind: markup.BlockParagraph, Spans: markup.ParseInline(text)}
	}
	return []markup.Block{
		{Kind: markup.BlockTitle, Spans: []markup.Span{{Text: company + " Proposal"}}},
		para("**Client:** " + client),
		para("**Sector:** " + sector),
		para("**Date:** " + date.Format("2006-01-02")),
		{Kind: markup.BlockHeading, Spans: []markup.Span{{Text: "EMERGENCY PROPOSAL"}}},
		para("We are sorry. An issue occurred while preparing your detailed proposal, so this summary document was issued instead. The information you shared has been saved and a complete proposal can be generated again from your conversation."),
		para(fmt.Sprintf("Please contact %s to receive the full technical and financial proposal.", contact)),
		para("The " + company + " Team"),
	}
}

// RenderEmergency lays out the fixed fallback document in reduced mode:
// title, client facts and a notice paragraph, with no tables.
func (r *Renderer) RenderEmergency(n EmergencyNotice, w io.Writer) error {
	return r.render(n.blocks(), w, true)
}
