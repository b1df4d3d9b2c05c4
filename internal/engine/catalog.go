package engine

// Category is one of the five scoring categories.
type Category string

const (
	CategoryGrowth       Category = "growth"
	CategoryWool         Category = "wool"
	CategoryReproduction Category = "reproduction"
	CategoryHealth       Category = "health"
	CategoryTemperament  Category = "temperament"
)

// Categories lists all scoring categories in presentation order.
var Categories = []Category{
	CategoryGrowth,
	CategoryWool,
	CategoryReproduction,
	CategoryHealth,
	CategoryTemperament,
}

// Derived KPI names consumed for standardization and category scoring.
const (
	TraitADG100200    = "adg_100_200d"
	TraitADG200300    = "adg_200_300d"
	TraitWt200Adj     = "wt_200d_adj"
	TraitWt300Adj     = "wt_300d_adj"
	TraitCFW          = "cfw"
	TraitMicronAdj    = "micron_adj"
	TraitStapleLenAdj = "staple_len_adj"
	TraitWeaningRate  = "weaning_rate"
	TraitPregScan     = "preg_scan"
	TraitFECAdj       = "fec_adj"
	TraitFootrot      = "footrot_score"
	TraitDag          = "dag_score"
	TraitBSEPass      = "bse_pass"
	TraitTemperament  = "temperament"
)

// Raw KPI names consumed only by the filter engine. Filters are absolute
// thresholds, so they read raw values, never standardized ones.
const (
	RawBirthWeight   = "wt_birth"
	RawWeaningWeight = "wt_wean"
	RawWt200         = "wt_200d"
	RawWt300         = "wt_300d"
	RawMicron        = "micron"
)

// TraitDef describes one contributing KPI within a category.
// Inverted traits are those where a lower raw value is better (FEC, micron,
// footrot, dag); their standardized values are sign-flipped before averaging
// so that higher always means better.
type TraitDef struct {
	Name     string
	Inverted bool
}

// catalog is the fixed, predeclared set of contributing KPIs per category.
var catalog = map[Category][]TraitDef{
	CategoryGrowth: {
		{Name: TraitADG100200},
		{Name: TraitADG200300},
		{Name: TraitWt200Adj},
		{Name: TraitWt300Adj},
	},
	CategoryWool: {
		{Name: TraitCFW},
		{Name: TraitMicronAdj, Inverted: true},
		{Name: TraitStapleLenAdj},
	},
	CategoryReproduction: {
		{Name: TraitWeaningRate},
		{Name: TraitPregScan},
	},
	CategoryHealth: {
		{Name: TraitFECAdj, Inverted: true},
		{Name: TraitFootrot, Inverted: true},
		{Name: TraitDag, Inverted: true},
		{Name: TraitBSEPass},
	},
	CategoryTemperament: {
		{Name: TraitTemperament},
	},
}

// CategoryTraits returns the contributing traits for a category.
func CategoryTraits(c Category) []TraitDef {
	return catalog[c]
}

// AllTraits returns every trait name in the catalog, in category order.
func AllTraits() []string {
	var names []string
	for _, c := range Categories {
		for _, td := range catalog[c] {
			names = append(names, td.Name)
		}
	}
	return names
}
