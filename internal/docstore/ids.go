package docstore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ParseID converts an untyped identifier into a bson.ObjectID. nil yields
// bson.NilObjectID, meaning "no identifier". Accepted inputs are
// bson.ObjectID, *bson.ObjectID and 24-character hex strings.
func ParseID(v any) (bson.ObjectID, error) {
	return parseID("ParseID", "id", v)
}

// ParseIDs converts each entry with ParseID. The first bad entry fails the
// whole slice; nothing is partially converted.
func ParseIDs(vs []any) ([]bson.ObjectID, error) {
	if vs == nil {
		return nil, nil
	}
	ids := make([]bson.ObjectID, len(vs))
	for i, v := range vs {
		id, err := parseID("ParseIDs", fmt.Sprintf("ids[%d]", i), v)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func parseID(op, arg string, v any) (bson.ObjectID, error) {
	switch id := v.(type) {
	case nil:
		return bson.NilObjectID, nil
	case bson.ObjectID:
		return id, nil
	case *bson.ObjectID:
		if id == nil {
			return bson.NilObjectID, nil
		}
		return *id, nil
	case string:
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return bson.NilObjectID, argErr(op, arg, ErrInvalidID, "%q is not a 24-character hex ObjectID", id)
		}
		return oid, nil
	default:
		return bson.NilObjectID, argErr(op, arg, ErrInvalidID,
			"expected an ObjectID, a 24-character hex string or nil, got %T", v)
	}
}

// injectID overwrites doc's _id with id unless id is the zero value.
func injectID(doc bson.M, id bson.ObjectID) {
	if !id.IsZero() {
		doc["_id"] = id
	}
}

// adoptID records a driver-generated identifier on a document inserted without one.
func adoptID(doc bson.M, id any) {
	if _, ok := doc["_id"]; !ok && id != nil {
		doc["_id"] = id
	}
}
