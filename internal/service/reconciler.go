package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jjenkins/motreport/internal/model"
)

// Reconcile merges the MOT history payload (a) and the vehicle enquiry
// payload (b) into one VehicleRecord. Error signals in either payload are
// checked before any field is merged.
func Reconcile(a, b model.Payload) (*model.VehicleRecord, error) {
	if err := checkMOTPayload(a); err != nil {
		return nil, err
	}
	if err := checkVESPayload(b); err != nil {
		return nil, err
	}

	vehicle := &model.VehicleRecord{}
	for _, rule := range vehicleFields {
		val, err := resolveField(rule, a, b)
		if err != nil {
			return nil, err
		}
		rule.set(vehicle, val)
	}

	if _, ok := vehicle.Registration.Get(); !ok {
		return nil, &MissingDataError{Provider: ProviderMOT, Field: "registration", Reason: "not supplied by either provider"}
	}

	tests, err := NormalizeTests(testHistory(a))
	if err != nil {
		return nil, fmt.Errorf("failed to normalize test history: %w", err)
	}
	vehicle.Tests = tests

	return vehicle, nil
}

func testHistory(a model.Payload) any {
	for _, key := range testKeys {
		if raw, ok := a[key]; ok {
			return raw
		}
	}
	return nil
}

// checkMOTPayload detects gateway refusals ("message") and the MOT history
// API error shape
func checkMOTPayload(p model.Payload) error {
	if p == nil {
		return &MissingDataError{Provider: ProviderMOT, Reason: "empty payload"}
	}

	if msg, ok := p["message"]; ok {
		return &UpstreamError{Provider: ProviderMOT, Message: scalarString(msg)}
	}

	_, hasMessage := p["errorMessage"]
	_, hasCode := p["errorCode"]
	if hasMessage || hasCode {
		return &UpstreamError{
			Provider: ProviderMOT,
			Code:     scalarString(p["errorCode"]),
			Message:  scalarString(p["errorMessage"]),
		}
	}

	return nil
}

// checkVESPayload detects gateway refusals ("message") and API errors ("errors")
func checkVESPayload(p model.Payload) error {
	if p == nil {
		return &MissingDataError{Provider: ProviderVES, Reason: "empty payload"}
	}

	if msg, ok := p["message"]; ok {
		return &UpstreamError{Provider: ProviderVES, Message: scalarString(msg)}
	}

	if raw, ok := p["errors"]; ok {
		upErr := &UpstreamError{Provider: ProviderVES, Message: "request rejected"}
		if list, ok := raw.([]any); ok && len(list) > 0 {
			if first, ok := list[0].(map[string]any); ok {
				upErr.Code = scalarString(first["code"])
				if detail := scalarString(first["detail"]); detail != "" {
					upErr.Message = detail
				} else if title := scalarString(first["title"]); title != "" {
					upErr.Message = title
				}
			}
		}
		return upErr
	}

	return nil
}

// resolveField applies key-presence precedence: A if A defines the key, else B, else the default
func resolveField(rule fieldRule, a, b model.Payload) (model.Value, error) {
	if rule.AKey != "" {
		if raw, ok := a[rule.AKey]; ok {
			return toValue(ProviderMOT, rule, raw)
		}
	}
	if rule.BKey != "" {
		if raw, ok := b[rule.BKey]; ok {
			return toValue(ProviderVES, rule, raw)
		}
	}
	return model.MissingValue(rule.Default), nil
}

func toValue(provider Provider, rule fieldRule, raw any) (model.Value, error) {
	if raw == nil {
		return model.NullValue(rule.Default), nil
	}

	switch v := raw.(type) {
	case string:
		return model.PresentValue(v), nil
	case json.Number:
		return model.PresentValue(v.String()), nil
	case bool:
		return model.PresentValue(strconv.FormatBool(v)), nil
	case float64:
		return model.PresentValue(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case int:
		return model.PresentValue(strconv.Itoa(v)), nil
	default:
		return model.Value{}, &MissingDataError{
			Provider: provider,
			Field:    rule.Name,
			Reason:   fmt.Sprintf("expected a scalar, got %T", raw),
		}
	}
}

// scalarString renders a scalar payload value as text, or "" for anything else
func scalarString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
