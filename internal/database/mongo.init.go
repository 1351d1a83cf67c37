package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"tamil_society/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureCollections creates the named collections that do not exist yet
func EnsureCollections(ctx context.Context, db *mongo.Database, names []string) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	for _, name := range names {
		if name == "" || have[name] {
			continue
		}
		logger.GetAppLogger().Infof("Collection %s does not exist, creating", name)
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}

	logger.GetAppLogger().Infof("Collections ensured in database: %s", db.Name())
	return nil
}

// IndexSpec is one index derived from a model's `index` struct tags
type IndexSpec struct {
	Name   string
	Keys   bson.D
	Unique bool
	Sparse bool
	TTL    *int32
}

// parseIndexTag splits "single:1,order:-1;compound:name" into one map per index entry
func parseIndexTag(tag string) []map[string]string {
	var result []map[string]string
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entry := map[string]string{}
		for _, sub := range strings.Split(part, ",") {
			kv := strings.SplitN(strings.TrimSpace(sub), ":", 2)
			if len(kv) == 2 {
				entry[kv[0]] = kv[1]
			} else {
				entry[kv[0]] = ""
			}
		}
		result = append(result, entry)
	}
	return result
}

// entryOrder returns -1 when the entry says order:-1, else 1
func entryOrder(entry map[string]string) int {
	if entry["order"] == "-1" {
		return -1
	}
	return 1
}

// bsonName returns the field name from a bson tag, "" for skipped fields
func bsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("bson"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// IndexSpecs reads the `index` tags of model.
//
//	single:1 / single:1,order:-1   one-field index named <field>_single
//	unique[,sparse]                unique index named <field>_unique
//	ttl:<seconds>                  TTL index named <field>_ttl
//	compound:<name>[,order:-1]     field joins compound index <name>, in struct order
//	text                           text index named <field>_text
func IndexSpecs(model interface{}) ([]IndexSpec, error) {
	modelType := reflect.TypeOf(model)
	if modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	var specs []IndexSpec
	compounds := map[string]*IndexSpec{}
	var compoundOrder []string

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		tag, ok := field.Tag.Lookup("index")
		if !ok {
			continue
		}
		name := bsonName(field)
		if name == "" {
			continue
		}

		for _, entry := range parseIndexTag(tag) {
			_, sparse := entry["sparse"]

			if _, ok := entry["text"]; ok {
				specs = append(specs, IndexSpec{Name: name + "_text", Keys: bson.D{{Key: name, Value: "text"}}})
			}
			if _, ok := entry["single"]; ok {
				specs = append(specs, IndexSpec{Name: name + "_single", Keys: bson.D{{Key: name, Value: entryOrder(entry)}}})
			}
			if _, ok := entry["unique"]; ok {
				specs = append(specs, IndexSpec{Name: name + "_unique", Keys: bson.D{{Key: name, Value: 1}}, Unique: true, Sparse: sparse})
			}
			if raw, ok := entry["ttl"]; ok {
				ttl, err := strconv.Atoi(raw)
				if err != nil {
					return nil, fmt.Errorf("invalid ttl on %s: %w", name, err)
				}
				seconds := int32(ttl)
				specs = append(specs, IndexSpec{Name: name + "_ttl", Keys: bson.D{{Key: name, Value: 1}}, TTL: &seconds})
			}
			if group, ok := entry["compound"]; ok {
				spec, exists := compounds[group]
				if !exists {
					spec = &IndexSpec{Name: group, Unique: strings.Contains(group, "_unique")}
					compounds[group] = spec
					compoundOrder = append(compoundOrder, group)
				}
				spec.Keys = append(spec.Keys, bson.E{Key: name, Value: entryOrder(entry)})
				spec.Sparse = spec.Sparse || sparse
			}
		}
	}

	sort.Strings(compoundOrder)
	for _, group := range compoundOrder {
		specs = append(specs, *compounds[group])
	}
	return specs, nil
}

func (s IndexSpec) options() *options.IndexOptions {
	opts := options.Index().SetName(s.Name)
	if s.Unique {
		opts.SetUnique(true)
	}
	if s.Sparse {
		opts.SetSparse(true)
	}
	if s.TTL != nil {
		opts.SetExpireAfterSeconds(*s.TTL)
	}
	return opts
}

// matches reports whether an existing index (as listed by the server) has the same shape
func (s IndexSpec) matches(existing bson.M) bool {
	keys, ok := existing["key"].(bson.M)
	if !ok || len(keys) != len(s.Keys) {
		return false
	}
	for _, k := range s.Keys {
		have, ok := keys[k.Key]
		if !ok || !sameKeyValue(have, k.Value) {
			return false
		}
	}

	unique, _ := existing["unique"].(bool)
	if unique != s.Unique {
		return false
	}

	if s.TTL != nil {
		ttl, ok := existing["expireAfterSeconds"].(int32)
		if !ok || ttl != *s.TTL {
			return false
		}
	}
	return true
}

func sameKeyValue(have interface{}, want interface{}) bool {
	w, isInt := want.(int)
	if !isInt {
		return have == want
	}
	switch v := have.(type) {
	case int32:
		return int(v) == w
	case int64:
		return int(v) == w
	case float64:
		return int(v) == w
	}
	return false
}

// CreateIndexes creates the indexes declared on model, replacing same-named indexes whose shape changed
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	specs, err := IndexSpecs(model)
	if err != nil {
		return err
	}

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	defer cursor.Close(ctx)

	existing := map[string]bson.M{}
	for cursor.Next(ctx) {
		var info bson.M
		if err := cursor.Decode(&info); err != nil {
			return fmt.Errorf("failed to decode index info: %w", err)
		}
		if name, ok := info["name"].(string); ok {
			existing[name] = info
		}
	}

	log := logger.WithModule("database").WithField("collection", collection.Name())
	for _, spec := range specs {
		if info, ok := existing[spec.Name]; ok {
			if spec.matches(info) {
				continue
			}
			if _, err := collection.Indexes().DropOne(ctx, spec.Name); err != nil {
				return fmt.Errorf("failed to drop index %s: %w", spec.Name, err)
			}
			log.Infof("Dropped outdated index %s", spec.Name)
		}

		if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: spec.Keys, Options: spec.options()}); err != nil {
			return fmt.Errorf("failed to create index %s: %w", spec.Name, err)
		}
		log.Infof("Created index %s", spec.Name)
	}
	return nil
}
