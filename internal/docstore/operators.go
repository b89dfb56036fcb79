package docstore

import (
	"reflect"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// updateOperators is the fixed allow-list shared by UpdateOne and UpdateMany.
var updateOperators = map[string]struct{}{
	"$set":         {},
	"$setOrInsert": {},
	"$unset":       {},
	"$currentDate": {},
	"$inc":         {},
	"$min":         {},
	"$max":         {},
	"$mul":         {},
	"$rename":      {},
}

var updateOperatorList = func() string {
	names := UpdateOperators()
	return strings.Join(names, ", ")
}()

// UpdateOperators returns the accepted update operator names, sorted.
func UpdateOperators() []string {
	names := make([]string, 0, len(updateOperators))
	for name := range updateOperators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsUpdateOperator reports whether name is in the allow-list.
func IsUpdateOperator(name string) bool {
	_, ok := updateOperators[name]
	return ok
}

// ValidateUpdate accepts update when at least one top-level key is an allowed
// operator whose value is a non-nil document. Other keys are left for the
// server to judge.
func ValidateUpdate(update bson.M) error {
	return validateUpdate("ValidateUpdate", update)
}

func validateUpdate(op string, update bson.M) error {
	if update == nil {
		return argErr(op, "update", ErrInvalidUpdate,
			"update expression is nil, expected at least one of {%s} mapped to a document", updateOperatorList)
	}
	for key, val := range update {
		if IsUpdateOperator(key) && !isNil(val) && isDocument(val) {
			return nil
		}
	}
	return argErr(op, "update", ErrInvalidUpdate,
		"update expression must contain at least one of {%s} mapped to a non-null document", updateOperatorList)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// bsonScalars are struct types that marshal to a BSON value other than a
// document.
var bsonScalars = map[reflect.Type]struct{}{
	reflect.TypeFor[time.Time]():          {},
	reflect.TypeFor[bson.Binary]():        {},
	reflect.TypeFor[bson.Undefined]():     {},
	reflect.TypeFor[bson.Null]():          {},
	reflect.TypeFor[bson.Regex]():         {},
	reflect.TypeFor[bson.DBPointer]():     {},
	reflect.TypeFor[bson.CodeWithScope](): {},
	reflect.TypeFor[bson.Timestamp]():     {},
	reflect.TypeFor[bson.Decimal128]():    {},
	reflect.TypeFor[bson.MinKey]():        {},
	reflect.TypeFor[bson.MaxKey]():        {},
}

// isDocument reports whether v marshals to a BSON document: bson.D, bson.M,
// bson.Raw, a string-keyed map or a struct. Structs the driver encodes as
// scalars (time.Time, bson.Decimal128, bson.Regex and the other BSON value
// types) are not documents.
func isDocument(v any) bool {
	switch v.(type) {
	case bson.D, bson.M, bson.Raw:
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Struct:
		_, scalar := bsonScalars[rv.Type()]
		return !scalar
	}
	return false
}
