package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
	"github.com/frontdesk-gym/frontdesk/internal/kioskclient"
)

// render prints one decision for the desk operator.
func render(w io.Writer, resp types.CheckInResponse, err error) {
	var apiErr *kioskclient.APIError
	switch {
	case errors.As(err, &apiErr):
		fmt.Fprintf(w, "[ERROR]  %s\n", apiErr.Message)
		return
	case err != nil:
		fmt.Fprintln(w, "[ERROR]  Connection Error")
		return
	}

	r := resp.Result
	tag := "DENIED"
	switch {
	case r.Outcome == types.OutcomeExpiringSoon:
		tag = "WARN"
	case r.Valid:
		tag = "OK"
	}

	fmt.Fprintf(w, "[%s]  %s\n", tag, r.Message)
	if m := r.Member; m != nil {
		fmt.Fprintf(w, "  %s (#%d)  %s  expires %s\n", m.Name, m.ID, m.Package, m.Expiry)
	}
	if r.Reason != "" && !r.Valid {
		fmt.Fprintf(w, "  %s\n", r.Reason)
	}
}
