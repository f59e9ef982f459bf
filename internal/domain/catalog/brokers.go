package catalog

import "broker-removal/internal/domain/entity"

// Brokers returns the seed catalog in its canonical order. IDs are assigned
// by the profile store when the catalog is seeded.
func Brokers() []entity.Broker {
	return []entity.Broker{
		{
			Name:                "Whitepages",
			Website:             "whitepages.com",
			Category:            entity.CategoryPeopleSearch,
			RemovalURL:          "https://www.whitepages.com/suppression_requests",
			RemovalMethod:       "form",
			AutomationAvailable: true,
			RemovalInstructions: "Fill out online opt-out form with name, address, and phone number",
			VerificationMethod:  "email_confirmation",
			EstimatedTime:       "24h",
			RecipeRef:           "whitepages",
		},
		{
			Name:                "Spokeo",
			Website:             "spokeo.com",
			Category:            entity.CategoryPeopleSearch,
			RemovalURL:          "https://www.spokeo.com/optout",
			RemovalMethod:       "form",
			AutomationAvailable: true,
			RemovalInstructions: "Search for your profile, then use opt-out form",
			VerificationMethod:  "email_confirmation",
			EstimatedTime:       "3-5 days",
			RecipeRef:           "spokeo",
		},
		{
			Name:                "BeenVerified",
			Website:             "beenverified.com",
			Category:            entity.CategoryBackgroundCheck,
			RemovalURL:          "https://www.beenverified.com/app/optout/search",
			RemovalMethod:       "form",
			AutomationAvailable: true,
			RemovalInstructions: "Search for profile and submit opt-out request",
			VerificationMethod:  "email_confirmation",
			EstimatedTime:       "24h",
			RecipeRef:           "beenverified",
		},
		{
			Name:                "PeopleFinder",
			Website:             "peoplefinder.com",
			Category:            entity.CategoryPeopleSearch,
			RemovalURL:          "https://www.peoplefinder.com/optout.php",
			RemovalMethod:       "form",
			AutomationAvailable: false,
			RemovalInstructions: "Manual form submission required with ID verification",
			VerificationMethod:  "manual_review",
			EstimatedTime:       "2-3 weeks",
			InstructionRef:      "peoplefinder",
		},
		{
			Name:                "Intelius",
			Website:             "intelius.com",
			Category:            entity.CategoryBackgroundCheck,
			RemovalURL:          "https://www.intelius.com/optout",
			RemovalMethod:       "form",
			AutomationAvailable: true,
			RemovalInstructions: "Online opt-out form with email verification",
			VerificationMethod:  "email_confirmation",
			EstimatedTime:       "24h",
			RecipeRef:           "intelius",
		},
		{
			Name:                "TruePeopleSearch",
			Website:             "truepeoplesearch.com",
			Category:            entity.CategoryPeopleSearch,
			RemovalURL:          "https://www.truepeoplesearch.com/removal",
			RemovalMethod:       "form",
			AutomationAvailable: true,
			RemovalInstructions: "Find your listing and submit removal request",
			VerificationMethod:  "email_confirmation",
			EstimatedTime:       "24h",
			RecipeRef:           "truepeoplesearch",
		},
		{
			Name:                "FamilyTreeNow",
			Website:             "familytreenow.com",
			Category:            entity.CategoryPeopleSearch,
			RemovalURL:          "https://www.familytreenow.com/optout",
			RemovalMethod:       "form",
			AutomationAvailable: false,
			RemovalInstructions: "Manual opt-out process with identity verification",
			VerificationMethod:  "manual_review",
			EstimatedTime:       "2-3 weeks",
			InstructionRef:      "familytreenow",
		},
		{
			Name:                "MyLife",
			Website:             "mylife.com",
			Category:            entity.CategoryPeopleSearch,
			RemovalURL:          "https://www.mylife.com/ccpa",
			RemovalMethod:       "form",
			AutomationAvailable: true,
			RemovalInstructions: "CCPA opt-out form available",
			VerificationMethod:  "email_confirmation",
			EstimatedTime:       "3-5 days",
			RecipeRef:           "mylife",
		},
	}
}
