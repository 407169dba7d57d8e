package random

import (
	"fmt"

	"github.com/safing/portrand/config"
	"github.com/safing/portrand/crypto/hash"
	"github.com/safing/portrand/digestrand"
	"github.com/safing/portrand/harvest"
	"github.com/safing/portrand/pool"
)

// Configuration keys.
const (
	CfgFastGenerator     = "random/fast_generator"
	CfgFortunaCipher     = "random/fortuna_cipher"
	CfgFastHash          = "random/fast_hash"
	CfgReseedSoftSteps   = "random/reseed_soft_steps"
	CfgReseedHardSteps   = "random/reseed_hard_steps"
	CfgMixingHash        = "random/mixing_hash"
	CfgPoolHash          = "random/pool_hash"
	CfgPoolPath          = "random/pool_path"
	CfgHarvesterPoolSize = "random/harvester_pool_size"
	CfgSlowTickSource    = "random/slow_tick_source"
)

var (
	fastGeneratorOption     config.StringOption
	fortunaCipherOption     config.StringOption
	fastHashOption          config.StringOption
	reseedSoftStepsOption   config.IntOption
	reseedHardStepsOption   config.IntOption
	mixingHashOption        config.StringOption
	poolHashOption          config.StringOption
	poolPathOption          config.StringOption
	harvesterPoolSizeOption config.IntOption
	slowTickSourceOption    config.BoolOption
)

func registerConfig() error {
	for _, opt := range []*config.Option{
		{
			Name:            "Fast Generator",
			Key:             CfgFastGenerator,
			Description:     "Deterministic generator used by the fast engine: digest or fortuna. Takes effect when the shared engines are created.",
			OptType:         config.OptTypeString,
			ExpertiseLevel:  config.ExpertiseLevelDeveloper,
			DefaultValue:    digestrand.KindDigest,
			ValidationRegex: "^(digest|fortuna)$",
		},
		{
			Name:            "Fortuna Cipher",
			Key:             CfgFortunaCipher,
			Description:     "Cipher of the Fortuna generator, if selected as fast generator.",
			OptType:         config.OptTypeString,
			ExpertiseLevel:  config.ExpertiseLevelDeveloper,
			DefaultValue:    "aes",
			ValidationRegex: "^(aes|serpent)$",
		},
		{
			Name:           "Fast Generator Hash",
			Key:            CfgFastHash,
			Description:    "Hash algorithm of the digest generator of the fast engine.",
			OptType:        config.OptTypeString,
			ExpertiseLevel: config.ExpertiseLevelDeveloper,
			DefaultValue:   hash.SHA2_256.Name(),
		},
		{
			Name:           "Soft Reseed Threshold",
			Key:            CfgReseedSoftSteps,
			Description:    "Generation steps after which the fast engine reseeds in the background.",
			OptType:        config.OptTypeInt,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   DefaultSoftSteps,
		},
		{
			Name:           "Hard Reseed Threshold",
			Key:            CfgReseedHardSteps,
			Description:    "Generation steps after which the fast engine blocks until it is reseeded.",
			OptType:        config.OptTypeInt,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   DefaultHardSteps,
		},
		{
			Name:           "Pool Mixing Hash",
			Key:            CfgMixingHash,
			Description:    "Hash algorithm used to mix seeds into the persistent pool.",
			OptType:        config.OptTypeString,
			ExpertiseLevel: config.ExpertiseLevelDeveloper,
			DefaultValue:   hash.SHA2_256.Name(),
		},
		{
			Name:           "Pool Generator Hash",
			Key:            CfgPoolHash,
			Description:    "Hash algorithm of the generator serving persistent pool output.",
			OptType:        config.OptTypeString,
			ExpertiseLevel: config.ExpertiseLevelDeveloper,
			DefaultValue:   hash.SHA2_512.Name(),
		},
		{
			Name:           "Pool Path",
			Key:            CfgPoolPath,
			Description:    "Location of the persistent pool file. Empty selects the default location in the user config directory.",
			OptType:        config.OptTypeString,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   "",
		},
		{
			Name:            "Harvester Pool Size",
			Key:             CfgHarvesterPoolSize,
			Description:     "Amount of bytes a background harvester collects in advance.",
			OptType:         config.OptTypeInt,
			ExpertiseLevel:  config.ExpertiseLevelDeveloper,
			DefaultValue:    harvest.DefaultMaxPoolSize,
			ValidationRegex: "^[1-9][0-9]{1,5}$",
		},
		{
			Name:           "Use Tick Harvester",
			Key:            CfgSlowTickSource,
			Description:    "Add the scheduler timing harvester as an additional source of the slow engine.",
			OptType:        config.OptTypeBool,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   false,
		},
	} {
		if err := config.Register(opt); err != nil {
			return err
		}
	}

	fastGeneratorOption = config.GetAsString(CfgFastGenerator, digestrand.KindDigest)
	fortunaCipherOption = config.GetAsString(CfgFortunaCipher, "aes")
	fastHashOption = config.GetAsString(CfgFastHash, hash.SHA2_256.Name())
	reseedSoftStepsOption = config.GetAsInt(CfgReseedSoftSteps, DefaultSoftSteps)
	reseedHardStepsOption = config.GetAsInt(CfgReseedHardSteps, DefaultHardSteps)
	mixingHashOption = config.GetAsString(CfgMixingHash, hash.SHA2_256.Name())
	poolHashOption = config.GetAsString(CfgPoolHash, hash.SHA2_512.Name())
	poolPathOption = config.GetAsString(CfgPoolPath, "")
	harvesterPoolSizeOption = config.GetAsInt(CfgHarvesterPoolSize, harvest.DefaultMaxPoolSize)
	slowTickSourceOption = config.GetAsBool(CfgSlowTickSource, false)
	return nil
}

// PoolOptions returns the pool options as configured.
func PoolOptions() (pool.Options, error) {
	mixingAlg, err := hash.ParseAlgorithm(mixingHashOption())
	if err != nil {
		return pool.Options{}, fmt.Errorf("%s: %w", CfgMixingHash, err)
	}
	poolAlg, err := hash.ParseAlgorithm(poolHashOption())
	if err != nil {
		return pool.Options{}, fmt.Errorf("%s: %w", CfgPoolHash, err)
	}

	return pool.Options{
		Path:         poolPathOption(),
		MixingAlg:    mixingAlg,
		GeneratorAlg: poolAlg,
	}, nil
}

// fastOptions returns the fast engine options as configured.
func fastOptions() (FastOptions, error) {
	fastAlg, err := hash.ParseAlgorithm(fastHashOption())
	if err != nil {
		return FastOptions{}, fmt.Errorf("%s: %w", CfgFastHash, err)
	}
	factory, err := digestrand.NewFactory(fastGeneratorOption(), fastAlg, fortunaCipherOption())
	if err != nil {
		return FastOptions{}, fmt.Errorf("%s: %w", CfgFastGenerator, err)
	}

	soft := int(reseedSoftStepsOption())
	hard := int(reseedHardStepsOption())
	if soft <= 0 || hard <= 0 || soft > hard {
		return FastOptions{}, fmt.Errorf("%w: soft=%d hard=%d", ErrInvalidThresholds, soft, hard)
	}

	return FastOptions{
		Factory:   factory,
		SoftSteps: soft,
		HardSteps: hard,
		Registry:  pool.DefaultRegistry,
	}, nil
}

// checkConfig validates option combinations that cannot be expressed as regular expressions.
func checkConfig() error {
	if _, err := PoolOptions(); err != nil {
		return err
	}
	_, err := fastOptions()
	return err
}
