package models_test

import (
	"encoding/json"
	"fmt"

	"github.com/levelup-project/levelup/internal/models"
)

func ExampleMessage_MarshalJSON() {
	plain := models.NewTextMessage(models.RoleSystem, "You are a helpful assistant.")
	vision := models.NewPartsMessage(models.RoleUser,
		models.TextPart("What fruit is this?"),
		models.ImagePart("https://example.com/orange.jpg"),
	)

	for _, m := range []models.Message{plain, vision} {
		data, err := json.Marshal(m)
		if err != nil {
			panic(err)
		}
		fmt.Println(string(data))
	}
	// Output:
	// {"role":"system","content":"You are a helpful assistant."}
	// {"role":"user","content":[{"type":"text","text":"What fruit is this?"},{"type":"image_url","image_url":{"url":"https://example.com/orange.jpg"}}]}
}
