package chat

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
)

type fragmentKind int

const (
	fragmentText fragmentKind = iota
	fragmentStatus
	fragmentAdditionalData
)

const (
	typeStatus         = "status"
	typeAdditionalData = "additional_data"
)

type fragment struct {
	kind      fragmentKind
	text      string
	reviewIDs []int
	products  []reviewly.Product
}

const (
	keyType    = "type"
	keyMessage = "message"
	keyData    = "data"
)

type additionalPayload struct {
	ReviewIDs []int             `json:"review_ids"`
	Products  []json.RawMessage `json:"products"`
}

// classify sorts one decoded chunk into text, a status update or an
// additional data payload. Anything that is not a JSON object carrying a known
// type is text, including the raw chunk of an unrecognised JSON object.
// Keys are matched exactly: {"TYPE":"status"} is text.
func classify(chunk string) fragment {
	text := fragment{kind: fragmentText, text: chunk}

	var env map[string]json.RawMessage
	if err := json.Unmarshal([]byte(chunk), &env); err != nil {
		return text
	}

	var kind string
	if raw, ok := env[keyType]; !ok || json.Unmarshal(raw, &kind) != nil {
		return text
	}

	switch kind {
	case typeStatus:
		var message string
		if raw, ok := env[keyMessage]; ok && json.Unmarshal(raw, &message) != nil {
			return text
		}
		return fragment{kind: fragmentStatus, text: message}
	case typeAdditionalData:
		reviewIDs, products := decodeAdditional(env[keyData])
		return fragment{kind: fragmentAdditionalData, reviewIDs: reviewIDs, products: products}
	default:
		return text
	}
}

func decodeAdditional(data json.RawMessage) ([]int, []reviewly.Product) {
	reviewIDs := []int{}
	products := []reviewly.Product{}
	if len(data) == 0 {
		return reviewIDs, products
	}

	var payload additionalPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Err(err).Msg("Ignoring malformed additional data payload")
		return reviewIDs, products
	}

	if payload.ReviewIDs != nil {
		reviewIDs = payload.ReviewIDs
	}
	for i, raw := range payload.Products {
		var p reviewly.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Skipping undecodable product in additional data")
			continue
		}
		products = append(products, p)
	}
	return reviewIDs, products
}
