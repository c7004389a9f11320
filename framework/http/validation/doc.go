// Package validation checks flat string input against pipe separated rules.
//
//	errs := validation.Check(req.All(), validation.Rules{
//	    "min":   "sometimes|integer|gte:0",
//	    "order": "sometimes|in:name,population",
//	})
//	if errs.Has() {
//	    res.SetStatus(http.StatusUnprocessableEntity).SetParams(errs.Params())
//	}
//
// Rules for a field run in order and stop at the first failure. Supported
// rules: required, sometimes, nullable, numeric, integer, boolean, min, max,
// between, in, not_in, alpha, alpha_num, alpha_dash, regex, gt, gte, lt, lte.
// min, max and between count characters.
package validation
