package tables

import "github.com/JonMunkholm/tarif/internal/core"

func init() {
	registerTVL()
}

func registerTVL() {
	core.Register(core.TableProfile{
		Name:        "TV-L",
		Label:       "Tarifvertrag für den öffentlichen Dienst der Länder",
		Aliases:     []string{"TVL", "TV-Laender"},
		GradeColumn: "Entgeltgruppe",
		Delimiter:   ';',
		Region:      "ALL",
		ValidFrom:   "2025-02-01",
	})
}
