package validators

import "go.mongodb.org/mongo-driver/bson"

var ListingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"seller_id",
			"seller_name",
			"gem_name",
			"reserve_price",
			"currency",
			"status",
			"bidding_active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"seller_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"gem_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"seller_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"species": bson.M{
				"bsonType": "string",
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"reserve_price": bson.M{
				"bsonType": "decimal",
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PENDING_APPROVAL",
					"APPROVED",
					"ACTIVE",
					"REJECTED",
					"SOLD",
					"EXPIRED_NO_BIDS",
				},
			},

			"bidding_active": bson.M{
				"bsonType": "bool",
			},

			"bidding_start_time": bson.M{
				"bsonType": "date",
			},

			"bidding_end_time": bson.M{
				"bsonType": "date",
			},

			"bidding_completed_at": bson.M{
				"bsonType": "date",
			},

			"winning_bidder_id": bson.M{
				"bsonType": "string",
			},

			"final_price": bson.M{
				"bsonType": "decimal",
			},

			"search_keys": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"views": bson.M{
				"bsonType": []string{"int", "long"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
