package validators

import "go.mongodb.org/mongo-driver/bson"

var timeRangeSchema = bson.M{
	"bsonType": "object",
	"required": []string{"date", "start", "end"},
	"properties": bson.M{
		"date": bson.M{
			"bsonType": "string",
			"pattern":  datePattern,
		},
		"start": bson.M{
			"bsonType": "string",
			"pattern":  timePattern,
		},
		"end": bson.M{
			"bsonType": "string",
			"pattern":  timePattern,
		},
	},
}

var SlotRequestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_id",
			"host_id",
			"venue_id",
			"requested_range",
			"status",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"event_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"host_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"venue_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"requested_range":   timeRangeSchema,
			"alternative_range": timeRangeSchema,
			"confirmed_range":   timeRangeSchema,

			"status": bson.M{
				"enum": []string{"pending", "approved", "rejected", "counter_proposed", "needs_changes"},
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"venue_response": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"responded_at": bson.M{
				"bsonType": []string{"date", "null"},
			},
		},
	},
}

var SlotLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner",
			"expires_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"owner": bson.M{
				"bsonType": "string",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
