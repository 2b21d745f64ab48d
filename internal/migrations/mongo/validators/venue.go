package validators

import "go.mongodb.org/mongo-driver/bson"

const (
	datePattern = `^\d{4}-\d{2}-\d{2}$`
	timePattern = `^([01][0-9]|2[0-3]):[0-5][0-9]$`
)

var VenueValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"city",
			"address",
			"open_time",
			"close_time",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"city": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"address": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"contact_phone": bson.M{
				"bsonType": "string",
			},

			"time_zone": bson.M{
				"bsonType": "string",
			},

			"open_time": bson.M{
				"bsonType": "string",
				"pattern":  timePattern,
			},

			"close_time": bson.M{
				"bsonType": "string",
				"pattern":  timePattern,
			},

			"slot_approval_required": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var VenueBlockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"venue_id",
			"date",
			"reason",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"venue_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},

			"reason": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"full_day": bson.M{
				"bsonType": "bool",
			},

			"start": bson.M{
				"bsonType": "string",
				"pattern":  timePattern,
			},

			"end": bson.M{
				"bsonType": "string",
				"pattern":  timePattern,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
