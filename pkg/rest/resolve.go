package rest

import (
	"errors"
	"fmt"
)

// Resolved is the outcome of resolving an operation config for a verb.
type Resolved struct {
	// Payload is the body (create, update) or query (get) as supplied.
	Payload any
	// PayloadValues is Payload normalized to an object. Nil for delete.
	PayloadValues Values
	// PathParams is the placeholder source.
	PathParams Values
}

// Resolve determines the effective payload and path parameters of cfg.
//
// For create and update an envelope contributes its body (or an empty object)
// and its path parameters, falling back to the body when none were given. A
// flat config is used for both roles. Get applies the same rule to the query.
// Delete only takes a flat path parameters object.
func Resolve(verb Verb, cfg *Config) (Resolved, error) {
	switch verb {
	case VerbGet, VerbCreate, VerbUpdate:
		return resolvePayload(verb, cfg)
	case VerbDelete:
		if cfg.IsEnvelope() {
			return Resolved{}, ErrEnvelopeNotAllowed
		}

		params, err := ToValues(cfg.Payload())
		if err != nil {
			return Resolved{}, fmt.Errorf("resolving path parameters: %w", err)
		}

		return Resolved{PathParams: params}, nil
	default:
		return Resolved{}, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}
}

func resolvePayload(verb Verb, cfg *Config) (Resolved, error) {
	payload := cfg.Payload()
	if payload == nil {
		payload = Values{}
	}

	// Bodies need not be objects (e.g. a JSON array); queries must be.
	payloadValues, err := ToValues(payload)
	if err != nil && (verb == VerbGet || !errors.Is(err, ErrNotAnObject)) {
		return Resolved{}, fmt.Errorf("resolving payload: %w", err)
	}

	resolved := Resolved{
		Payload:       payload,
		PayloadValues: payloadValues,
		PathParams:    payloadValues,
	}

	if cfg.IsEnvelope() && cfg.PathParams() != nil {
		params, err := ToValues(cfg.PathParams())
		if err != nil {
			return Resolved{}, fmt.Errorf("resolving path parameters: %w", err)
		}

		resolved.PathParams = params
	}

	return resolved, nil
}
