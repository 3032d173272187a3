package validators

import "go.mongodb.org/mongo-driver/bson"

var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"listing_id",
			"type",
			"title",
			"message",
			"is_read",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"listing_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"BID_PLACED",
					"BID_OUTBID",
					"NEW_BID",
					"BID_ACTIVITY",
					"BID_WON",
					"ITEM_SOLD",
					"BIDDING_ENDED",
				},
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"message": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"is_read": bson.M{
				"bsonType": "bool",
			},

			"read_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
