package mongo

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/persist"
)

func TestColumnWrites(t *testing.T) {
	order := persist.SectionOrder{SectionID: "s1", Columns: 2, Blocks: []persist.BlockOrder{
		{ID: "a", Col: 0, Row: 0, Order: 0},
		{ID: "b", Col: 1, Row: 0, Order: 1},
	}}
	models := columnWrites(order)
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}

	m, ok := models[1].(*mongo.UpdateOneModel)
	if !ok {
		t.Fatalf("model is %T, want *mongo.UpdateOneModel", models[1])
	}
	if !reflect.DeepEqual(m.Filter, bson.M{"_id": "b"}) {
		t.Errorf("filter = %v", m.Filter)
	}
	want := bson.M{"$set": bson.M{"section_id": "s1", "col_index": 1, "row_index": 0, "order_index": 1}}
	if !reflect.DeepEqual(m.Update, want) {
		t.Errorf("update = %v, want %v", m.Update, want)
	}
	if m.Upsert == nil || !*m.Upsert {
		t.Error("expected upsert")
	}
}

func TestPositionWrites(t *testing.T) {
	models := positionWrites("s1", map[string]board.FreeformPosition{
		"b": {X: 1, Y: 2, Z: 3, Scale: 1},
		"a": {X: 4, Y: 5, Z: 6, Scale: 2},
	})
	if len(models) != 3 {
		t.Fatalf("got %d models, want 3", len(models))
	}

	del, ok := models[0].(*mongo.DeleteManyModel)
	if !ok {
		t.Fatalf("first model is %T, want *mongo.DeleteManyModel", models[0])
	}
	wantFilter := bson.M{"section_id": "s1", "block_id": bson.M{"$nin": []string{"a", "b"}}}
	if !reflect.DeepEqual(del.Filter, wantFilter) {
		t.Errorf("delete filter = %v, want %v", del.Filter, wantFilter)
	}

	first := models[1].(*mongo.UpdateOneModel)
	if !reflect.DeepEqual(first.Filter, bson.M{"section_id": "s1", "block_id": "a"}) {
		t.Errorf("upserts not in id order: %v", first.Filter)
	}
}

func TestPositionWritesScopedToSection(t *testing.T) {
	pos := map[string]board.FreeformPosition{"a": {X: 1, Y: 2, Scale: 1}}
	s1 := positionWrites("s1", pos)
	s2 := positionWrites("s2", pos)

	tests := []struct {
		name   string
		models []mongo.WriteModel
		want   bson.M
	}{
		{"s1", s1, bson.M{"section_id": "s1", "block_id": "a"}},
		{"s2", s2, bson.M{"section_id": "s2", "block_id": "a"}},
	}
	for _, tt := range tests {
		up, ok := tt.models[1].(*mongo.UpdateOneModel)
		if !ok {
			t.Fatalf("%s: second model is %T", tt.name, tt.models[1])
		}
		if !reflect.DeepEqual(up.Filter, tt.want) {
			t.Errorf("%s: upsert filter = %v, want %v", tt.name, up.Filter, tt.want)
		}
		del := tt.models[0].(*mongo.DeleteManyModel)
		if f := del.Filter.(bson.M); f["section_id"] != tt.name {
			t.Errorf("%s: delete filter = %v", tt.name, f)
		}
	}
	if reflect.DeepEqual(s1[1].(*mongo.UpdateOneModel).Filter, s2[1].(*mongo.UpdateOneModel).Filter) {
		t.Error("the same block in two sections shares one position document")
	}
}

func TestPositionWritesEmptyClearsSection(t *testing.T) {
	models := positionWrites("s1", nil)
	if len(models) != 1 {
		t.Fatalf("got %d models, want 1", len(models))
	}
	if _, ok := models[0].(*mongo.DeleteManyModel); !ok {
		t.Errorf("model is %T, want *mongo.DeleteManyModel", models[0])
	}
}
