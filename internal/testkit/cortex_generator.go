// Package testkit generates synthetic mouse cortex expression tables shaped
// like the memantine study, for tests and demos.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"cortexstat/domain/dataset"
)

// CortexGeneratorConfig configures the cortex data generator
type CortexGeneratorConfig struct {
	MicePerGroup int     `json:"mice_per_group"` // per Genotype x Treatment cell
	Replicates   int     `json:"replicates"`     // measurements per mouse
	ExtraCount   int     `json:"extra_count"`    // additional dense proteins
	MissingRate  float64 `json:"missing_rate"`   // share of missing cells in dense proteins
	SparseRate   float64 `json:"sparse_rate"`    // share of missing cells in the sparse proteins
	OutlierRate  float64 `json:"outlier_rate"`   // share of target values pushed far out
	// Memantine shifts BDNF_N by this much
	TreatmentEffect float64 `json:"treatment_effect"`
	// Ts65Dn with memantine shifts pCREB_N by this much
	InteractionEffect float64 `json:"interaction_effect"`
	Seed              int64   `json:"seed"`
}

// DefaultCortexConfig mirrors the size of Data_Cortex_Nuclear: 72 mice with
// 15 replicates each
func DefaultCortexConfig() CortexGeneratorConfig {
	return CortexGeneratorConfig{
		MicePerGroup:      18,
		Replicates:        15,
		ExtraCount:        6,
		MissingRate:       0.01,
		SparseRate:        0.7,
		OutlierRate:       0.005,
		TreatmentEffect:   0.02,
		InteractionEffect: 0.03,
		Seed:              42,
	}
}

// Levels of the study design
var (
	Genotypes  = []string{"Control", "Ts65Dn"}
	Treatments = []string{"Memantine", "Saline"}
	Behaviors  = []string{"C/S", "S/C"}
)

// SparseColumns are generated mostly missing, as in the real table
var SparseColumns = []string{"BAD_N", "BCL2_N", "H3AcK18_N", "EGR1_N", "H3MeK4_N"}

// protein is a generated expression column: a baseline mean and its spread
type protein struct {
	name string
	mean float64
	sd   float64
}

var baseProteins = []protein{
	{"DYRK1A_N", 0.42, 0.25},
	{"ITSN1_N", 0.62, 0.25},
	{"BDNF_N", 0.32, 0.05},
	{"NR1_N", 2.30, 0.35},
	{"pCREB_N", 0.21, 0.03},
	{"SOD1_N", 0.54, 0.28},
}

// CortexDataGenerator generates expression tables
type CortexDataGenerator struct {
	config CortexGeneratorConfig
	rng    *rand.Rand
}

// NewCortexDataGenerator creates a generator; the same seed always yields
// the same table
func NewCortexDataGenerator(config CortexGeneratorConfig) *CortexDataGenerator {
	return &CortexDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Rows returns the number of rows Generate produces
func (g *CortexDataGenerator) Rows() int {
	return len(Genotypes) * len(Treatments) * g.config.MicePerGroup * g.config.Replicates
}

// Generate builds the table. Columns follow the layout of the real data:
// MouseID, the proteins, Genotype, Treatment, Behavior and class.
func (g *CortexDataGenerator) Generate() (*dataset.Dataset, error) {
	n := g.Rows()
	if n == 0 {
		return nil, fmt.Errorf("empty design: %d mice per group, %d replicates", g.config.MicePerGroup, g.config.Replicates)
	}

	proteins := append([]protein(nil), baseProteins...)
	for i := 0; i < g.config.ExtraCount; i++ {
		proteins = append(proteins, protein{
			name: fmt.Sprintf("P%02d_N", i+1),
			mean: 0.2 + g.rng.Float64()*2,
			sd:   0.05 + g.rng.Float64()*0.2,
		})
	}
	for _, name := range SparseColumns {
		proteins = append(proteins, protein{name: name, mean: 0.15, sd: 0.03})
	}

	var (
		mice       = make([]string, 0, n)
		genotype   = make([]string, 0, n)
		treatment  = make([]string, 0, n)
		behavior   = make([]string, 0, n)
		class      = make([]string, 0, n)
		values     = make([][]float64, len(proteins))
		valid      = make([][]bool, len(proteins))
		mouseIndex = 0
	)
	for p := range proteins {
		values[p] = make([]float64, 0, n)
		valid[p] = make([]bool, 0, n)
	}

	for gi, gt := range Genotypes {
		for ti, tr := range Treatments {
			for m := 0; m < g.config.MicePerGroup; m++ {
				mouseIndex++
				bh := Behaviors[g.rng.Intn(len(Behaviors))]
				offsets := make([]float64, len(proteins))
				for p, pr := range proteins {
					offsets[p] = g.rng.NormFloat64() * pr.sd * 0.3
				}

				for r := 0; r < g.config.Replicates; r++ {
					mice = append(mice, fmt.Sprintf("%d_%d", 300+mouseIndex, r+1))
					genotype = append(genotype, gt)
					treatment = append(treatment, tr)
					behavior = append(behavior, bh)
					class = append(class, classLabel(gt, bh, tr))

					for p, pr := range proteins {
						v := pr.mean + offsets[p] + g.rng.NormFloat64()*pr.sd*0.2
						v += g.effect(pr.name, gi, ti)
						if isTarget(pr.name) && g.rng.Float64() < g.config.OutlierRate {
							v += sign(g.rng) * 20 * pr.sd
						}
						missing := g.rng.Float64() < g.config.MissingRate
						if isSparse(pr.name) {
							missing = g.rng.Float64() < g.config.SparseRate
						}
						if missing {
							v = math.NaN()
						}
						values[p] = append(values[p], v)
						valid[p] = append(valid[p], !missing)
					}
				}
			}
		}
	}

	columns := []*dataset.Column{dataset.NewCategoricalColumn("MouseID", mice, nil)}
	for p, pr := range proteins {
		columns = append(columns, dataset.NewNumericColumn(pr.name, values[p], valid[p]))
	}
	columns = append(columns,
		dataset.NewCategoricalColumn("Genotype", genotype, nil),
		dataset.NewCategoricalColumn("Treatment", treatment, nil),
		dataset.NewCategoricalColumn("Behavior", behavior, nil),
		dataset.NewCategoricalColumn("class", class, nil),
	)
	return dataset.New(columns...)
}

// effect is the designed shift of a protein for genotype gi and treatment ti
func (g *CortexDataGenerator) effect(name string, gi, ti int) float64 {
	memantine := Treatments[ti] == "Memantine"
	trisomic := Genotypes[gi] == "Ts65Dn"
	switch name {
	case "BDNF_N":
		if memantine {
			return g.config.TreatmentEffect
		}
	case "pCREB_N":
		if memantine && trisomic {
			return g.config.InteractionEffect
		}
	}
	return 0
}

// classLabel builds the class code of the real data, e.g. "t-CS-m"
func classLabel(genotype, behavior, treatment string) string {
	g := "c"
	if genotype == "Ts65Dn" {
		g = "t"
	}
	b := "CS"
	if behavior == "S/C" {
		b = "SC"
	}
	t := "s"
	if treatment == "Memantine" {
		t = "m"
	}
	return g + "-" + b + "-" + t
}

func isTarget(name string) bool { return name == "BDNF_N" || name == "pCREB_N" }

func isSparse(name string) bool {
	for _, s := range SparseColumns {
		if s == name {
			return true
		}
	}
	return false
}

func sign(rng *rand.Rand) float64 {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}
