package values_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/values"
)

func TestCheckShape(t *testing.T) {
	schema := model.Schema{
		{Kind: model.KindNumber, Name: "age"},
		{Kind: model.KindSlot, Name: "device"},
		{Kind: model.KindCluster, Name: "address", Children: []model.FieldNode{
			{Kind: model.KindText, Name: "city"},
		}},
	}

	cases := map[string]struct {
		tree    values.Tree
		wantErr bool
	}{
		"empty":           {tree: values.Tree{}},
		"valid":           {tree: values.Tree{"age": "34", "address": values.Tree{"city": "Paris"}}},
		"orphan top":      {tree: values.Tree{"weight": "80"}, wantErr: true},
		"orphan nested":   {tree: values.Tree{"address": values.Tree{"zip": "1"}}, wantErr: true},
		"scalar cluster":  {tree: values.Tree{"address": "Paris"}, wantErr: true},
		"slot with value": {tree: values.Tree{"device": "x"}, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := values.CheckShape(schema, tc.tree)
			if tc.wantErr {
				var shapeErr *values.ShapeError
				if !errors.As(err, &shapeErr) {
					t.Fatalf("expected ShapeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
