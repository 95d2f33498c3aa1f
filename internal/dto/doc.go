// Package dto holds request payload types for endpoints whose wire shape
// differs from the domain input types, plus the shared parse-and-validate
// helper that backs them.
//
// Handlers use it like this:
//
//	var req dto.LoginRequest
//	if ok, err := dto.ParseAndValidate(c, &req); !ok {
//	    return err
//	}
//
// ParseAndValidate writes the 400 or 422 response itself, so on !ok the
// handler returns immediately. Endpoints that accept a domain input type
// directly (products, print jobs, orders) skip this package; their
// validation runs in the service layer instead.
package dto
