package database

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// togglePipeline builds an update pipeline that removes id from the array
// field when present and appends it otherwise. The server evaluates it against
// the current document, so concurrent toggles serialise on the document.
func togglePipeline(field string, id primitive.ObjectID) mongo.Pipeline {
	current := bson.D{{"$ifNull", bson.A{"$" + field, bson.A{}}}}
	return mongo.Pipeline{
		{{"$set", bson.D{{field, bson.D{{"$cond", bson.D{
			{"if", bson.D{{"$in", bson.A{id, current}}}},
			{"then", bson.D{{"$filter", bson.D{
				{"input", current},
				{"cond", bson.D{{"$ne", bson.A{"$$this", id}}}},
			}}}},
			{"else", bson.D{{"$concatArrays", bson.A{current, bson.A{id}}}}},
		}}}}}}},
	}
}

func toggleResult(members []primitive.ObjectID, id primitive.ObjectID) ToggleResult {
	res := ToggleResult{Count: len(members)}
	for _, m := range members {
		if m == id {
			res.Member = true
			break
		}
	}
	return res
}

// membershipUpdate is the mirror-side update used after a toggle.
func membershipUpdate(field string, id primitive.ObjectID, member bool) bson.M {
	if member {
		return bson.M{"$addToSet": bson.M{field: id}}
	}
	return bson.M{"$pull": bson.M{field: id}}
}
