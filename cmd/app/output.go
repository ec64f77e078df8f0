package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"EquityLens/internal/domain/models"
	domsvc "EquityLens/internal/domain/service"
)

// writeBatch encodes each successful result to out and one
// "analysis unavailable for X: reason" line per failure to errOut.
func writeBatch(out, errOut io.Writer, items []domsvc.BatchItem) (failed int, err error) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	for _, it := range items {
		if it.Err != nil {
			failed++
			fmt.Fprintln(errOut, unavailableMessage(it.Symbol, it.Err))
			continue
		}
		if err := enc.Encode(it.Result); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func unavailableMessage(symbol string, err error) string {
	var due *models.DataUnavailableError
	if errors.As(err, &due) {
		return due.Error()
	}
	return models.NewDataUnavailable(strings.ToUpper(strings.TrimSpace(symbol)), "", err).Error()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
