// Package rural classifies practice ZIP codes as rural or non-rural using
// USDA RUCA (Rural-Urban Commuting Area) codes. Codes 4-10 count as rural.
// The classification gates the top scoring tiers: only rural leads may ever
// reach A or A+.
package rural
