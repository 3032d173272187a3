package validators

import "go.mongodb.org/mongo-driver/bson"

var BidValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"listing_id",
			"bidder_id",
			"bidder_name",
			"seller_id",
			"bid_amount",
			"currency",
			"status",
			"bid_time",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"listing_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"bidder_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"bidder_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"seller_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"bid_amount": bson.M{
				"bsonType": "decimal",
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"message": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"ACTIVE",
					"OUTBID",
				},
			},

			"bid_time": bson.M{
				"bsonType": "date",
			},
		},
	},
}
