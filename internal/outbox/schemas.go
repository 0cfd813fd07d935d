package outbox

const sessionCompletedSchema = `{
  "type": "object",
  "title": "SessionCompleted",
  "properties": {
    "session_id": {"type": "string"},
    "user_id": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "total_calories": {"type": "integer"},
    "avg_intensity": {"type": "integer"},
    "total_exercises": {"type": "integer"},
    "total_sets": {"type": "integer"},
    "completed_at": {"type": "string", "format": "date-time"}
  },
  "required": ["session_id", "user_id", "date", "total_calories", "avg_intensity", "total_exercises", "total_sets", "completed_at"],
  "additionalProperties": false
}`

const leaderboardUpdatedSchema = `{
  "type": "object",
  "title": "LeaderboardUpdated",
  "properties": {
    "date": {"type": "string", "format": "date"},
    "entries": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "user_id": {"type": "string"},
          "rank": {"type": "integer"},
          "score": {"type": "number"},
          "medal": {"type": "string"},
          "calories": {"type": "integer"},
          "workout_count": {"type": "integer"}
        },
        "required": ["user_id", "rank", "score", "medal", "calories", "workout_count"],
        "additionalProperties": false
      }
    },
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["date", "entries", "occurred_at"],
  "additionalProperties": false
}`
