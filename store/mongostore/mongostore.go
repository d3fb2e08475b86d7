// Package mongostore implements store.Store on MongoDB. Structural
// mutations that must be atomic run inside a session transaction started by
// WithTransaction.
package mongostore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nimbusdrive/models"
	"nimbusdrive/store"
)

type MongoStore struct {
	db          *mongo.Database
	users       *mongo.Collection
	folders     *mongo.Collection
	files       *mongo.Collection
	shares      *mongo.Collection
	shareAccess *mongo.Collection
	audit       *mongo.Collection
}

var _ store.Store = (*MongoStore)(nil)

func New(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:          db,
		users:       db.Collection("users"),
		folders:     db.Collection("folders"),
		files:       db.Collection("files"),
		shares:      db.Collection("shares"),
		shareAccess: db.Collection("share_access"),
		audit:       db.Collection("activity_logs"),
	}
}

// EnsureIndexes creates the indexes the hot paths rely on. Called once at
// startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.folders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "parent_id", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = s.files.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "parent_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.shares.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "target.resource_type", Value: 1}, {Key: "target.resource_id", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.shareAccess.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "share_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.audit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func parentFilter(parentID *primitive.ObjectID) interface{} {
	if parentID == nil {
		return nil
	}
	return *parentID
}

// ---------- users ----------

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := s.users.InsertOne(ctx, user)
	return err
}

func (s *MongoStore) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) AdjustUsedStorage(ctx context.Context, userID primitive.ObjectID, delta int64) error {
	// Pipeline update so the floor-at-zero happens server side, inside the
	// same atomic write as the increment.
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "used_storage", Value: bson.D{{Key: "$max", Value: bson.A{
				int64(0),
				bson.D{{Key: "$add", Value: bson.A{"$used_storage", delta}}},
			}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

// ---------- folders ----------

func (s *MongoStore) InsertFolder(ctx context.Context, folder *models.Folder) error {
	if folder.ID.IsZero() {
		folder.ID = primitive.NewObjectID()
	}
	_, err := s.folders.InsertOne(ctx, folder)
	return err
}

func (s *MongoStore) FolderByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := s.folders.FindOne(ctx, bson.M{"_id": id}).Decode(&folder)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *MongoStore) FolderChildren(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error) {
	cursor, err := s.folders.Find(ctx, bson.M{
		"owner_id":  ownerID,
		"parent_id": parentFilter(parentID),
	}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err = cursor.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *MongoStore) FolderNameExists(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, name string) (bool, error) {
	count, err := s.folders.CountDocuments(ctx, bson.M{
		"owner_id":  ownerID,
		"parent_id": parentFilter(parentID),
		"name":      name,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoStore) RenameFolder(ctx context.Context, id primitive.ObjectID, name string, at time.Time) error {
	_, err := s.folders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"name": name, "updated_at": at},
	})
	return err
}

func (s *MongoStore) ReparentFolders(ctx context.Context, ids []primitive.ObjectID, parentID *primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.folders.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{
		"$set": bson.M{"parent_id": parentFilter(parentID), "updated_at": at},
	})
	return err
}

func (s *MongoStore) DeleteFolders(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.folders.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (s *MongoStore) SearchFolders(ctx context.Context, ownerID primitive.ObjectID, query string) ([]models.Folder, error) {
	cursor, err := s.folders.Find(ctx, bson.M{
		"owner_id": ownerID,
		"name":     bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
	}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err = cursor.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// ---------- files ----------

func (s *MongoStore) InsertFile(ctx context.Context, file *models.File) error {
	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	_, err := s.files.InsertOne(ctx, file)
	return err
}

func (s *MongoStore) FileByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	err := s.files.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *MongoStore) UpdateFile(ctx context.Context, file *models.File) error {
	_, err := s.files.ReplaceOne(ctx, bson.M{"_id": file.ID}, file)
	return err
}

func (s *MongoStore) FilesInFolder(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.File, error) {
	cursor, err := s.files.Find(ctx, bson.M{
		"owner_id":  ownerID,
		"parent_id": parentFilter(parentID),
		"status":    models.FileActive,
	}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *MongoStore) FilesInFolders(ctx context.Context, folderIDs []primitive.ObjectID) ([]models.File, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	cursor, err := s.files.Find(ctx, bson.M{"parent_id": bson.M{"$in": folderIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *MongoStore) FileNameExists(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, name string) (bool, error) {
	count, err := s.files.CountDocuments(ctx, bson.M{
		"owner_id":  ownerID,
		"parent_id": parentFilter(parentID),
		"name":      name,
		"status":    models.FileActive,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoStore) RenameFile(ctx context.Context, id primitive.ObjectID, name string, at time.Time) error {
	_, err := s.files.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"name": name, "updated_at": at},
	})
	return err
}

func (s *MongoStore) ReparentFiles(ctx context.Context, ids []primitive.ObjectID, parentID *primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.files.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{
		"$set": bson.M{"parent_id": parentFilter(parentID), "updated_at": at},
	})
	return err
}

func (s *MongoStore) DetachAndMarkDeleted(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.files.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{
		"$set": bson.M{"parent_id": nil, "status": models.FileDeleted, "updated_at": at},
	})
	return err
}

func (s *MongoStore) RestoreFile(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.files.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"parent_id": nil, "status": models.FileActive, "updated_at": at},
	})
	return err
}

func (s *MongoStore) DeleteFiles(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.files.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (s *MongoStore) DeletedFiles(ctx context.Context, ownerID primitive.ObjectID) ([]models.File, error) {
	cursor, err := s.files.Find(ctx, bson.M{
		"owner_id": ownerID,
		"status":   models.FileDeleted,
	}, options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *MongoStore) DeletedFilesBefore(ctx context.Context, cutoff time.Time) ([]models.File, error) {
	cursor, err := s.files.Find(ctx, bson.M{
		"status":     models.FileDeleted,
		"updated_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *MongoStore) SearchFiles(ctx context.Context, ownerID primitive.ObjectID, query string) ([]models.File, error) {
	cursor, err := s.files.Find(ctx, bson.M{
		"owner_id": ownerID,
		"status":   models.FileActive,
		"name":     bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
	}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ---------- shares ----------

func (s *MongoStore) InsertShare(ctx context.Context, share *models.Share) error {
	if share.ID.IsZero() {
		share.ID = primitive.NewObjectID()
	}
	_, err := s.shares.InsertOne(ctx, share)
	return err
}

func (s *MongoStore) ShareByID(ctx context.Context, id primitive.ObjectID) (*models.Share, error) {
	var share models.Share
	err := s.shares.FindOne(ctx, bson.M{"_id": id}).Decode(&share)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *MongoStore) ShareByToken(ctx context.Context, token string) (*models.Share, error) {
	var share models.Share
	err := s.shares.FindOne(ctx, bson.M{"token": token}).Decode(&share)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func targetQuery(target models.Target) bson.M {
	return bson.M{
		"target.resource_type": target.Type,
		"target.resource_id":   target.ID,
	}
}

func (s *MongoStore) SharesForTarget(ctx context.Context, target models.Target) ([]models.Share, error) {
	cursor, err := s.shares.Find(ctx, targetQuery(target), options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shares []models.Share
	if err = cursor.All(ctx, &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

func (s *MongoStore) PublicShareForTarget(ctx context.Context, target models.Target) (*models.Share, error) {
	filter := targetQuery(target)
	filter["is_public"] = true

	var share models.Share
	err := s.shares.FindOne(ctx, filter).Decode(&share)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *MongoStore) GrantForTarget(ctx context.Context, target models.Target, userID primitive.ObjectID) (*models.Share, error) {
	cursor, err := s.shareAccess.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var grants []models.ShareAccess
	if err = cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return nil, nil
	}

	shareIDs := make([]primitive.ObjectID, 0, len(grants))
	for _, g := range grants {
		shareIDs = append(shareIDs, g.ShareID)
	}

	filter := targetQuery(target)
	filter["_id"] = bson.M{"$in": shareIDs}
	filter["is_public"] = false

	var share models.Share
	err = s.shares.FindOne(ctx, filter).Decode(&share)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *MongoStore) UpdateShare(ctx context.Context, share *models.Share) error {
	_, err := s.shares.ReplaceOne(ctx, bson.M{"_id": share.ID}, share)
	return err
}

func (s *MongoStore) DeleteShare(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.shares.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}
	_, err := s.shareAccess.DeleteMany(ctx, bson.M{"share_id": id})
	return err
}

func (s *MongoStore) DeleteSharesForTargets(ctx context.Context, targets []models.Target) error {
	if len(targets) == 0 {
		return nil
	}
	clauses := make([]bson.M, 0, len(targets))
	for _, t := range targets {
		clauses = append(clauses, targetQuery(t))
	}

	cursor, err := s.shares.Find(ctx, bson.M{"$or": clauses})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var shares []models.Share
	if err = cursor.All(ctx, &shares); err != nil {
		return err
	}
	if len(shares) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(shares))
	for _, sh := range shares {
		ids = append(ids, sh.ID)
	}
	if _, err = s.shares.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return err
	}
	_, err = s.shareAccess.DeleteMany(ctx, bson.M{"share_id": bson.M{"$in": ids}})
	return err
}

func (s *MongoStore) SetShareAccess(ctx context.Context, shareID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	if _, err := s.shareAccess.DeleteMany(ctx, bson.M{"share_id": shareID}); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	seen := make(map[primitive.ObjectID]bool, len(userIDs))
	docs := make([]interface{}, 0, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		docs = append(docs, models.ShareAccess{ShareID: shareID, UserID: uid})
	}
	_, err := s.shareAccess.InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) ShareAccessUserIDs(ctx context.Context, shareID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := s.shareAccess.Find(ctx, bson.M{"share_id": shareID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var grants []models.ShareAccess
	if err = cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.UserID)
	}
	return ids, nil
}

// ---------- audit ----------

func (s *MongoStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.audit.InsertOne(ctx, entry)
	return err
}

func (s *MongoStore) ListAudit(ctx context.Context, ownerID primitive.ObjectID, filter store.AuditFilter) ([]models.AuditEntry, error) {
	query := bson.M{"owner_id": ownerID}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.ResourceType != "" {
		query["resource_type"] = filter.ResourceType
	}
	if filter.From != nil || filter.To != nil {
		span := bson.M{}
		if filter.From != nil {
			span["$gte"] = *filter.From
		}
		if filter.To != nil {
			span["$lte"] = *filter.To
		}
		query["created_at"] = span
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.audit.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.AuditEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ---------- transactions ----------

func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
