package categorize

// DefaultRules returns the stock rule table. The slice order is the match
// precedence: earlier categories win when keywords of several categories
// occur in the same description.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Food & Dining", Keywords: []string{
			"restaurant", "cafe", "food", "grocery", "supermarket",
			"starbucks", "mcdonald", "pizza", "burger", "delivery",
			"uber eats", "doordash", "grubhub", "dining",
		}},
		{Category: "Transportation", Keywords: []string{
			"gas", "fuel", "uber", "lyft", "taxi", "parking",
			"car wash", "toll", "metro", "bus", "train", "subway",
			"vehicle", "maintenance", "repair",
		}},
		{Category: "Shopping", Keywords: []string{
			"amazon", "walmart", "target", "mall", "store",
			"clothing", "shoes", "electronics", "online shopping",
			"ebay", "etsy", "fashion", "retail",
		}},
		{Category: "Bills & Utilities", Keywords: []string{
			"electric", "water", "gas bill", "internet", "phone",
			"cable", "insurance", "rent", "mortgage", "utility",
			"subscription", "netflix", "spotify", "hulu",
		}},
		{Category: "Entertainment", Keywords: []string{
			"movie", "cinema", "theater", "concert", "game",
			"streaming", "hobby", "sports", "gym", "fitness",
			"recreation", "amusement", "ticket",
		}},
		{Category: "Healthcare", Keywords: []string{
			"pharmacy", "doctor", "hospital", "clinic", "medical",
			"dentist", "prescription", "health", "medicine",
			"therapy", "wellness",
		}},
		{Category: "Salary", Keywords: []string{
			"salary", "payroll", "wages", "paycheck", "employer",
			"direct deposit", "income",
		}},
		{Category: "Freelance", Keywords: []string{
			"freelance", "consulting", "contract", "gig",
			"side job", "project payment",
		}},
	}
}
