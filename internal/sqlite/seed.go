// This file implements commodity reference seeding. The templates are
// the source of truth a structural rebuild recreates the catalog from;
// live feeds and dumps only ever add to them.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// seedTemplate describes a commodity seeded on first startup and after
// structural rebuilds.
type seedTemplate struct {
	name        string
	category    string
	displayName string
}

// commodityTemplates is the built-in reference catalog. Symbols are
// pre-normalized; display names match the authoritative source spelling.
var commodityTemplates = []seedTemplate{
	{"agri_medicines", "Medicines", "Agri-Medicines"},
	{"aluminium", "Metals", "Aluminium"},
	{"animal_meat", "Foods", "Animal Meat"},
	{"basic_medicines", "Medicines", "Basic Medicines"},
	{"bauxite", "Minerals", "Bauxite"},
	{"beer", "Legal Drugs", "Beer"},
	{"bertrandite", "Minerals", "Bertrandite"},
	{"biowaste", "Waste", "Biowaste"},
	{"clothing", "Consumer Items", "Clothing"},
	{"cobalt", "Metals", "Cobalt"},
	{"coffee", "Foods", "Coffee"},
	{"computer_components", "Technology", "Computer Components"},
	{"consumer_technology", "Technology", "Consumer Technology"},
	{"copper", "Metals", "Copper"},
	{"explosives", "Chemicals", "Explosives"},
	{"fish", "Foods", "Fish"},
	{"food_cartridges", "Foods", "Food Cartridges"},
	{"fruit_and_vegetables", "Foods", "Fruit and Vegetables"},
	{"gallite", "Minerals", "Gallite"},
	{"gold", "Metals", "Gold"},
	{"grain", "Foods", "Grain"},
	{"hydrogen_fuel", "Chemicals", "Hydrogen Fuel"},
	{"indite", "Minerals", "Indite"},
	{"limpet", "Machinery", "Limpet"},
	{"liquor", "Legal Drugs", "Liquor"},
	{"low_temperature_diamonds", "Minerals", "Low Temperature Diamonds"},
	{"marine_equipment", "Machinery", "Marine Equipment"},
	{"medical_diagnostic_equipment", "Medicines", "Medical Diagnostic Equipment"},
	{"methanol_monohydrate_crystals", "Minerals", "Methanol Monohydrate Crystals"},
	{"mineral_extractors", "Machinery", "Mineral Extractors"},
	{"occupied_escape_pod", "Salvage", "Occupied Escape Pod"},
	{"palladium", "Metals", "Palladium"},
	{"performance_enhancers", "Medicines", "Performance Enhancers"},
	{"platinum", "Metals", "Platinum"},
	{"power_generators", "Machinery", "Power Generators"},
	{"progenitor_cells", "Medicines", "Progenitor Cells"},
	{"silver", "Metals", "Silver"},
	{"superconductors", "Industrial Materials", "Superconductors"},
	{"tea", "Foods", "Tea"},
	{"titanium", "Metals", "Titanium"},
	{"tritium", "Chemicals", "Tritium"},
	{"void_opals", "Minerals", "Void Opals"},
	{"water", "Chemicals", "Water"},
	{"water_purifiers", "Machinery", "Water Purifiers"},
	{"wine", "Legal Drugs", "Wine"},
}

// seedCommodities inserts any missing template commodities. Existing
// rows are untouched, so re-running after imports never clobbers
// source-provided categories.
func seedCommodities(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin commodity seed: %w", err)
	}
	defer tx.Rollback()

	for _, c := range commodityTemplates {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO commodities (name, category, display_name) VALUES (?, ?, ?)",
			c.name, c.category, c.displayName,
		); err != nil {
			return fmt.Errorf("seed commodity %q: %w", c.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit commodity seed: %w", err)
	}
	return nil
}

// SeededCommodities returns the template catalog for callers that need
// the reference list without a store.
func SeededCommodities() []types.Commodity {
	out := make([]types.Commodity, 0, len(commodityTemplates))
	for _, c := range commodityTemplates {
		out = append(out, types.Commodity{Name: c.name, Category: c.category, DisplayName: c.displayName})
	}
	return out
}
