package factus_test

import "github.com/cockroachdb/errors"

func hints(err error) []string {
	return errors.GetAllHints(err)
}
