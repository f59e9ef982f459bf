package adapter

import (
	"context"
	"errors"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"
	"broker-removal/internal/infrastructure/browser/htmltext"
)

var successPhrases = []string{
	"request has been received",
	"request has been submitted",
	"successfully submitted",
	"we have received your request",
	"opt-out request received",
	"removal request received",
	"check your email",
	"confirmation email",
	"we will process your request",
	"thank you for your submission",
	"thank you for your request",
}

var notFoundPhrases = []string{
	"no results found",
	"no records found",
	"we could not find",
	"0 results",
}

// confirm decides whether the current page shows that a submission was
// accepted. The declared marker wins; without it the visible page text is
// scanned for well-known phrases.
func confirm(ctx context.Context, session output.SessionPort, marker recipe.Marker) (entity.Confirmation, map[string]any, error) {
	detail := make(map[string]any)

	if marker.Selector != "" {
		err := session.WaitVisible(ctx, marker.Selector)
		if err == nil {
			detail["confirmed_by"] = "selector"
			detail["marker"] = marker.Selector
			return entity.ConfirmationConfirmed, detail, nil
		}
		if !errors.Is(err, output.ErrElementNotFound) {
			return "", nil, err
		}
		detail["marker_missing"] = marker.Selector
	}

	if marker.Text != "" {
		err := session.WaitText(ctx, marker.Text)
		if err == nil {
			detail["confirmed_by"] = "text"
			detail["marker"] = marker.Text
			return entity.ConfirmationConfirmed, detail, nil
		}
		if !errors.Is(err, output.ErrElementNotFound) {
			return "", nil, err
		}
		detail["marker_missing"] = marker.Text
	}

	page, err := session.PageHTML(ctx)
	if err != nil {
		return "", nil, err
	}
	verdict, phrase := classifyText(htmltext.VisibleText(page, nil))
	if phrase != "" {
		detail["confirmed_by"] = "heuristic"
		detail["phrase"] = phrase
	}
	return verdict, detail, nil
}

func classifyText(text string) (entity.Confirmation, string) {
	if phrase, ok := htmltext.ContainsAny(text, notFoundPhrases...); ok {
		return entity.ConfirmationNotFound, phrase
	}
	if phrase, ok := htmltext.ContainsAny(text, successPhrases...); ok {
		return entity.ConfirmationConfirmed, phrase
	}
	return entity.ConfirmationUncertain, ""
}
