package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/grid"
)

// Collection names, one per entity.
const (
	collContacts    = "contacts"
	collLeads       = "leads"
	collDeals       = "deals"
	collAccounts    = "accounts"
	collTemplates   = "templates"
	collPreferences = "preferences"
	collActivities  = "activities"
)

// caseInsensitive is the collation used for name/email sorting and the
// unique email index, so "Jane@Example.com" and "jane@example.com" are
// the same address.
var caseInsensitive = options.Collation{Locale: "en", Strength: 2}

// MongoConfig configures the MongoDB connection.
type MongoConfig struct {
	URI      string // e.g. "mongodb://localhost:27017"
	Database string // e.g. "tackle"
}

// ConnectMongo connects to MongoDB, verifies the connection with a ping,
// creates the indexes, and returns the full store set plus a close
// function for shutdown.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*Stores, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("create indexes: %w", err)
	}

	return NewMongoStores(db), client.Disconnect, nil
}

// NewMongoStores returns the full store set backed by db. Callers that
// manage their own client use this directly; ConnectMongo wraps it.
func NewMongoStores(db *mongo.Database) *Stores {
	return &Stores{
		Contacts:    &MongoContactStore{coll: db.Collection(collContacts)},
		Leads:       &MongoLeadStore{coll: db.Collection(collLeads)},
		Deals:       &MongoDealStore{coll: db.Collection(collDeals)},
		Accounts:    &MongoAccountStore{coll: db.Collection(collAccounts)},
		Templates:   &MongoTemplateStore{coll: db.Collection(collTemplates)},
		Preferences: &MongoPreferenceStore{coll: db.Collection(collPreferences)},
		Activities:  &MongoActivityStore{coll: db.Collection(collActivities)},
	}
}

// EnsureIndexes creates the indexes every collection relies on. Safe to
// call on every startup; MongoDB treats existing indexes as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	owner := bson.D{{Key: "owner_id", Value: 1}}

	indexes := map[string][]mongo.IndexModel{
		collContacts: {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetCollation(&caseInsensitive),
			},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "account_id", Value: 1}}},
		},
		collLeads: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collDeals: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "stage", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "account_id", Value: 1}}},
		},
		collAccounts:  {{Keys: owner}},
		collTemplates: {{Keys: owner}},
		collActivities: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "at", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("indexes for %s: %w", coll, err)
		}
	}
	return nil
}

// mapWriteErr converts driver errors on writes to the store sentinels.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

// searchRegex builds a case-insensitive substring matcher with the user
// input escaped, so "j+doe" searches literally instead of as a pattern.
func searchRegex(search string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
}

// =============================================================================
// Contacts
// =============================================================================

// MongoContactStore persists contacts in the contacts collection.
type MongoContactStore struct {
	coll *mongo.Collection
}

func (s *MongoContactStore) Create(ctx context.Context, c crm.Contact) error {
	_, err := s.coll.InsertOne(ctx, c)
	return mapWriteErr(err)
}

func (s *MongoContactStore) Get(ctx context.Context, ownerID, id string) (crm.Contact, error) {
	var c crm.Contact
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return crm.Contact{}, ErrNotFound
	}
	if err != nil {
		return crm.Contact{}, err
	}
	return c, nil
}

func (s *MongoContactStore) GetByEmail(ctx context.Context, ownerID, email string) (crm.Contact, error) {
	var c crm.Contact
	err := s.coll.FindOne(ctx,
		bson.M{"owner_id": ownerID, "email": email},
		options.FindOne().SetCollation(&caseInsensitive),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return crm.Contact{}, ErrNotFound
	}
	if err != nil {
		return crm.Contact{}, err
	}
	return c, nil
}

func (s *MongoContactStore) Update(ctx context.Context, c crm.Contact) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID, "owner_id": c.OwnerID}, c)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoContactStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoContactStore) List(ctx context.Context, ownerID string, f ContactFilter) ([]crm.Contact, error) {
	filter := bson.M{"owner_id": ownerID}
	if f.AccountID != "" {
		filter["account_id"] = f.AccountID
	}
	if f.Search != "" {
		re := searchRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"first_name": re},
			bson.M{"last_name": re},
			bson.M{"email": re},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}, {Key: "email", Value: 1}}).
		SetCollation(&caseInsensitive)

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]crm.Contact, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Leads
// =============================================================================

// MongoLeadStore persists leads in the leads collection.
type MongoLeadStore struct {
	coll *mongo.Collection
}

func (s *MongoLeadStore) Create(ctx context.Context, l crm.Lead) error {
	_, err := s.coll.InsertOne(ctx, l)
	return mapWriteErr(err)
}

func (s *MongoLeadStore) Get(ctx context.Context, ownerID, id string) (crm.Lead, error) {
	var l crm.Lead
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return crm.Lead{}, ErrNotFound
	}
	if err != nil {
		return crm.Lead{}, err
	}
	return l, nil
}

func (s *MongoLeadStore) Update(ctx context.Context, l crm.Lead) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": l.ID, "owner_id": l.OwnerID}, l)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoLeadStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoLeadStore) List(ctx context.Context, ownerID string, f LeadFilter) ([]crm.Lead, error) {
	filter := bson.M{"owner_id": ownerID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		re := searchRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"first_name": re},
			bson.M{"last_name": re},
			bson.M{"email": re},
			bson.M{"company": re},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]crm.Lead, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Deals
// =============================================================================

// MongoDealStore persists deals in the deals collection.
type MongoDealStore struct {
	coll *mongo.Collection
}

func (s *MongoDealStore) Create(ctx context.Context, d crm.Deal) error {
	_, err := s.coll.InsertOne(ctx, d)
	return mapWriteErr(err)
}

func (s *MongoDealStore) Get(ctx context.Context, ownerID, id string) (crm.Deal, error) {
	var d crm.Deal
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return crm.Deal{}, ErrNotFound
	}
	if err != nil {
		return crm.Deal{}, err
	}
	return d, nil
}

func (s *MongoDealStore) Update(ctx context.Context, d crm.Deal) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": d.ID, "owner_id": d.OwnerID}, d)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoDealStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoDealStore) List(ctx context.Context, ownerID string, f DealFilter) ([]crm.Deal, error) {
	filter := bson.M{"owner_id": ownerID}
	if f.Stage != "" {
		filter["stage"] = f.Stage
	}
	if f.AccountID != "" {
		filter["account_id"] = f.AccountID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]crm.Deal, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Accounts
// =============================================================================

// MongoAccountStore persists accounts in the accounts collection.
type MongoAccountStore struct {
	coll *mongo.Collection
}

func (s *MongoAccountStore) Create(ctx context.Context, a crm.Account) error {
	_, err := s.coll.InsertOne(ctx, a)
	return mapWriteErr(err)
}

func (s *MongoAccountStore) Get(ctx context.Context, ownerID, id string) (crm.Account, error) {
	var a crm.Account
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return crm.Account{}, ErrNotFound
	}
	if err != nil {
		return crm.Account{}, err
	}
	return a, nil
}

func (s *MongoAccountStore) Update(ctx context.Context, a crm.Account) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": a.ID, "owner_id": a.OwnerID}, a)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoAccountStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoAccountStore) List(ctx context.Context, ownerID string, f AccountFilter) ([]crm.Account, error) {
	filter := bson.M{"owner_id": ownerID}
	if f.Search != "" {
		filter["name"] = searchRegex(f.Search)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetCollation(&caseInsensitive)

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]crm.Account, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Templates
// =============================================================================

// MongoTemplateStore persists email templates in the templates collection.
type MongoTemplateStore struct {
	coll *mongo.Collection
}

func (s *MongoTemplateStore) Create(ctx context.Context, t crm.EmailTemplate) error {
	_, err := s.coll.InsertOne(ctx, t)
	return mapWriteErr(err)
}

func (s *MongoTemplateStore) Get(ctx context.Context, ownerID, id string) (crm.EmailTemplate, error) {
	var t crm.EmailTemplate
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return crm.EmailTemplate{}, ErrNotFound
	}
	if err != nil {
		return crm.EmailTemplate{}, err
	}
	return t, nil
}

func (s *MongoTemplateStore) Update(ctx context.Context, t crm.EmailTemplate) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID, "owner_id": t.OwnerID}, t)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoTemplateStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoTemplateStore) List(ctx context.Context, ownerID string) ([]crm.EmailTemplate, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetCollation(&caseInsensitive)

	cur, err := s.coll.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]crm.EmailTemplate, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Preferences
// =============================================================================

// MongoPreferenceStore persists preferences keyed by user ID.
type MongoPreferenceStore struct {
	coll *mongo.Collection
}

// storedPreferences mirrors crm.Preferences but reads the layout as a
// raw BSON value. Records written before the layout became structured
// hold a JSON string there; decoding straight into grid.Layout would
// fail on those, and a settings record must never fail to load.
type storedPreferences struct {
	UserID         string          `bson:"_id"`
	Theme          string          `bson:"theme"`
	Timezone       string          `bson:"timezone"`
	VisibleWidgets []grid.WidgetID `bson:"visible_widgets"`
	WidgetOrder    []grid.WidgetID `bson:"widget_order"`
	Layout         bson.RawValue   `bson:"layout"`
	UpdatedAt      time.Time       `bson:"updated_at"`
}

func (s *MongoPreferenceStore) Get(ctx context.Context, userID string) (crm.Preferences, error) {
	var stored storedPreferences
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return crm.Preferences{}, ErrNotFound
	}
	if err != nil {
		return crm.Preferences{}, err
	}

	return crm.Preferences{
		UserID:         stored.UserID,
		Theme:          stored.Theme,
		Timezone:       stored.Timezone,
		VisibleWidgets: stored.VisibleWidgets,
		WidgetOrder:    stored.WidgetOrder,
		Layout:         decodeStoredLayout(stored.Layout),
		UpdatedAt:      stored.UpdatedAt,
	}, nil
}

func (s *MongoPreferenceStore) Put(ctx context.Context, p crm.Preferences) error {
	// Whole-record replace; writing migrates any legacy layout encoding
	// to the structured form.
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.UserID}, p, options.Replace().SetUpsert(true))
	return err
}

// decodeStoredLayout converts whatever is in the layout field to a
// Layout: an embedded document decodes directly, a legacy JSON string
// goes through grid.DecodeLayout, anything else is an empty layout.
func decodeStoredLayout(raw bson.RawValue) grid.Layout {
	switch raw.Type {
	case bsontype.EmbeddedDocument:
		layout := grid.Layout{}
		if err := raw.Unmarshal(&layout); err != nil {
			return grid.Layout{}
		}
		return layout
	case bsontype.String:
		return grid.DecodeLayout([]byte(raw.StringValue()))
	default:
		return grid.Layout{}
	}
}

// =============================================================================
// Activities
// =============================================================================

// MongoActivityStore persists the change feed in the activities collection.
type MongoActivityStore struct {
	coll *mongo.Collection
}

func (s *MongoActivityStore) Append(ctx context.Context, a crm.Activity) error {
	_, err := s.coll.InsertOne(ctx, a)
	return mapWriteErr(err)
}

func (s *MongoActivityStore) List(ctx context.Context, ownerID string, f ActivityFilter) ([]crm.Activity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	filter := bson.M{"owner_id": ownerID}
	if f.RecordType != "" {
		filter["record_type"] = f.RecordType
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]crm.Activity, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ ContactStore = (*MongoContactStore)(nil)
var _ LeadStore = (*MongoLeadStore)(nil)
var _ DealStore = (*MongoDealStore)(nil)
var _ AccountStore = (*MongoAccountStore)(nil)
var _ TemplateStore = (*MongoTemplateStore)(nil)
var _ PreferenceStore = (*MongoPreferenceStore)(nil)
var _ ActivityStore = (*MongoActivityStore)(nil)
