package retryclient

import "fmt"

var (
	errFailBody    = fmt.Errorf("response body was \"Fail\"")
	errNoBatchID   = fmt.Errorf("response JSON missing batchID field")
	errUnknownMode = fmt.Errorf("unknown classification mode")
)

type httpStatusError struct {
	Code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

func statusError(code int) error {
	return &httpStatusError{Code: code}
}
