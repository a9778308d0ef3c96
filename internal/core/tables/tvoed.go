package tables

import "github.com/JonMunkholm/tarif/internal/core"

func init() {
	registerTVoeD()
}

// The raw export is named TVoED.csv, so the ASCII spellings are aliases of
// the stored name.
func registerTVoeD() {
	core.Register(core.TableProfile{
		Name:        "TVöD",
		Label:       "Tarifvertrag für den öffentlichen Dienst (Bund/VKA)",
		Aliases:     []string{"TVoED", "TVOD"},
		GradeColumn: "Entgeltgruppe",
		Delimiter:   ';',
		Region:      "ALL",
		ValidFrom:   "2025-02-01",
	})
}
