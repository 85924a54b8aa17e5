package accountdb

import (
	"regexp"
	"time"

	"github.com/newsreel/cms-backend/pkg/db"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *AccountDBService) CreateAccount(account *userTypes.Account) (*userTypes.Account, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionAccounts().InsertOne(ctx, account)
	if err != nil {
		return nil, db.WrapWriteError(err)
	}
	account.ID = res.InsertedID.(primitive.ObjectID)
	return account, nil
}

func (dbService *AccountDBService) GetAccountByID(id string) (*userTypes.Account, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return dbService.findOne(bson.M{"_id": objID})
}

func (dbService *AccountDBService) GetAccountByEmail(email string) (*userTypes.Account, error) {
	return dbService.findOne(bson.M{"email": email})
}

func (dbService *AccountDBService) GetAccountByPhone(phone string) (*userTypes.Account, error) {
	return dbService.findOne(bson.M{"phone": phone})
}

func (dbService *AccountDBService) findOne(filter bson.M) (*userTypes.Account, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var account userTypes.Account
	if err := dbService.collectionAccounts().FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

// RegisterFailedLogin counts a failed login and returns the new number of consecutive failures.
// A lock that already expired is cleared in the same update so the count restarts at one.
func (dbService *AccountDBService) RegisterFailedLogin(id string, now time.Time) (int, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, err
	}
	ctx, cancel := dbService.getContext()
	defer cancel()

	var account userTypes.Account
	err = dbService.collectionAccounts().FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		failedLoginUpdate(now),
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"failedLoginAttempts": 1}),
	).Decode(&account)
	if err != nil {
		return 0, err
	}
	return account.FailedLoginAttempts, nil
}

// failedLoginUpdate restarts the counter at one when lockUntil is a date not after now,
// otherwise increments it.
func failedLoginUpdate(now time.Time) mongo.Pipeline {
	lockExpired := bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{bson.M{"$type": "$lockUntil"}, "date"}},
		bson.M{"$lte": bson.A{"$lockUntil", now}},
	}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"failedLoginAttempts": bson.M{"$cond": bson.A{
				lockExpired,
				1,
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$failedLoginAttempts", 0}}, 1}},
			}},
			"lockUntil": bson.M{"$cond": bson.A{lockExpired, "$$REMOVE", "$lockUntil"}},
			"updatedAt": now,
		}}},
	}
}

func (dbService *AccountDBService) LockAccount(id string, until time.Time) error {
	return dbService.updateOne(id, bson.M{"$set": bson.M{"lockUntil": until, "updatedAt": time.Now()}})
}

// RecordSuccessfulLogin resets the failure counter, clears any lock and marks the account active now.
func (dbService *AccountDBService) RecordSuccessfulLogin(id string, now time.Time) error {
	return dbService.updateOne(id, bson.M{
		"$set": bson.M{
			"failedLoginAttempts": 0,
			"lastActiveAt":        now,
			"updatedAt":           now,
		},
		"$unset": bson.M{"lockUntil": ""},
	})
}

func (dbService *AccountDBService) UpdateProfile(id string, update userTypes.ProfileUpdate) (*userTypes.Account, error) {
	set := bson.M{"updatedAt": time.Now()}
	unset := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		if *update.Phone == "" {
			unset["phone"] = ""
		} else {
			set["phone"] = *update.Phone
		}
	}
	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}
	return dbService.findOneAndUpdate(id, upd)
}

func (dbService *AccountDBService) UpdatePreferences(id string, prefs userTypes.Preferences) (*userTypes.Account, error) {
	return dbService.findOneAndUpdate(id, bson.M{"$set": bson.M{"preferences": prefs, "updatedAt": time.Now()}})
}

func (dbService *AccountDBService) AddBookmark(id string, kind string, ref primitive.ObjectID) (*userTypes.Account, error) {
	field, err := userTypes.BookmarkField(kind)
	if err != nil {
		return nil, err
	}
	return dbService.findOneAndUpdate(id, bson.M{
		"$addToSet": bson.M{field: ref},
		"$set":      bson.M{"updatedAt": time.Now()},
	})
}

func (dbService *AccountDBService) RemoveBookmark(id string, kind string, ref primitive.ObjectID) (*userTypes.Account, error) {
	field, err := userTypes.BookmarkField(kind)
	if err != nil {
		return nil, err
	}
	return dbService.findOneAndUpdate(id, bson.M{
		"$pull": bson.M{field: ref},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (dbService *AccountDBService) SetAccountStatus(id string, status string) (*userTypes.Account, error) {
	return dbService.findOneAndUpdate(id, bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
}

func (dbService *AccountDBService) SetAccountRole(id string, role string) (*userTypes.Account, error) {
	return dbService.findOneAndUpdate(id, bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now()}})
}

// FindAccounts returns one page of accounts, newest first, and the total number of matches.
func (dbService *AccountDBService) FindAccounts(filter userTypes.AccountFilter, page int64, limit int64) ([]userTypes.Account, int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		}
	}

	count, err := dbService.collectionAccounts().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetProjection(bson.M{"password": 0, "passwordResetToken": 0, "emailVerificationToken": 0})
	if dbService.noCursorTimeout {
		opts.SetNoCursorTimeout(true)
	}

	cursor, err := dbService.collectionAccounts().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	accounts := []userTypes.Account{}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, 0, err
	}
	return accounts, count, nil
}

func (dbService *AccountDBService) updateOne(id string, update bson.M) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionAccounts().UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (dbService *AccountDBService) findOneAndUpdate(id string, update bson.M) (*userTypes.Account, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := dbService.getContext()
	defer cancel()

	var account userTypes.Account
	err = dbService.collectionAccounts().FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&account)
	if err != nil {
		return nil, db.WrapWriteError(err)
	}
	return &account, nil
}
