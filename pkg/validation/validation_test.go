package validation

import (
	"errors"
	"testing"
)

func TestError(t *testing.T) {
	t.Run("no violations", func(t *testing.T) {
		v := &Error{}
		v.Check(true, "title", "too short")
		if err := v.ErrOrNil(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("collects every violation", func(t *testing.T) {
		v := &Error{}
		v.Check(false, "title", "too short")
		v.Check(true, "summary", "too short")
		v.Add("category", "unknown category")

		err := v.ErrOrNil()
		var vErr *Error
		if !errors.As(err, &vErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if len(vErr.Fields) != 2 || vErr.Fields[0].Field != "title" || vErr.Fields[1].Field != "category" {
			t.Errorf("unexpected fields: %+v", vErr.Fields)
		}
		if err.Error() != "validation failed: title: too short; category: unknown category" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})
}
