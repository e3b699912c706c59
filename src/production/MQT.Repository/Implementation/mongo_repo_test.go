package implementation

import (
	"testing"

	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoFindTranslatesQuery(t *testing.T) {
	q := interfaces.ListQuery{
		SortBy:  "timestamp",
		Order:   "desc",
		Limit:   10,
		Filters: map[string]string{"dispositivo_id": "abc", "dosificador_activado": "true", "bogus": "x"},
	}
	filter, opts := mongoFind(q, mongoReadingFields)

	if filter["dispositivo_id"] != "abc" {
		t.Fatalf("missing device filter: %v", filter)
	}
	if filter["dosificador_activado"] != true {
		t.Fatalf("bool filter not converted: %v", filter)
	}
	if _, ok := filter["bogus"]; ok {
		t.Fatalf("unknown field should be ignored")
	}
	if opts.Limit == nil || *opts.Limit != 10 {
		t.Fatalf("limit not applied")
	}
	sortDoc, ok := opts.Sort.(bson.D)
	if !ok || len(sortDoc) != 2 || sortDoc[0].Key != "timestamp" || sortDoc[0].Value != -1 {
		t.Fatalf("unexpected sort %#v", opts.Sort)
	}
}

func TestNewMongoIDIsTimeOrdered(t *testing.T) {
	a := newMongoID()
	b := newMongoID()
	if !(a < b) {
		t.Fatalf("expected %s < %s", a, b)
	}
}
