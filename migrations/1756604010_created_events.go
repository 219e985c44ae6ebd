package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("events")
		collection.Fields.Add(
			&core.TextField{Name: "ledger_id", Required: true},
			&core.TextField{Name: "name", Required: true},
			&core.TextField{Name: "symbol", Required: true},
			&core.TextField{Name: "organizer", Required: true},
			&core.EditorField{Name: "description"},
		)
		collection.AddIndex("idx_events_ledger_id", true, "ledger_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
