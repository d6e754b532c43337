package store

import "github.com/recipeapp/recipe-app/model"

// DefaultRecipes returns the catalog written on first start when no recipe is stored
func DefaultRecipes() []model.Recipe {
	return []model.Recipe{
		{
			Slug:     "pasta-bake",
			Title:    "Pasta Bake",
			Summary:  "Penne, tomato sauce and melted mozzarella baked until bubbling.",
			Minutes:  45,
			Servings: 4,
			Ingredients: []string{
				"400g penne",
				"500g tomato passata",
				"1 onion, diced",
				"2 cloves garlic",
				"200g mozzarella",
				"Fresh basil",
			},
			Steps: []string{
				"Cook the penne until just under al dente.",
				"Soften the onion and garlic, add the passata and simmer for 10 minutes.",
				"Mix pasta and sauce, top with mozzarella.",
				"Bake at 200C for 20 minutes.",
			},
			Tags: []string{"pasta", "vegetarian", "oven"},
		},
		{
			Slug:     "chicken-stir-fry",
			Title:    "Chicken Stir Fry",
			Summary:  "A quick weeknight stir fry with crisp vegetables and soy glaze.",
			Minutes:  25,
			Servings: 2,
			Ingredients: []string{
				"2 chicken breasts, sliced",
				"1 red capsicum",
				"1 head broccoli",
				"3 tbsp soy sauce",
				"1 tbsp honey",
				"1 tsp grated ginger",
			},
			Steps: []string{
				"Brown the chicken in a hot wok.",
				"Add vegetables and stir fry for 4 minutes.",
				"Stir through soy, honey and ginger until glossy.",
			},
			Tags: []string{"chicken", "quick", "wok"},
		},
		{
			Slug:     "lentil-soup",
			Title:    "Red Lentil Soup",
			Summary:  "Spiced red lentils simmered with carrot and cumin.",
			Minutes:  35,
			Servings: 6,
			Ingredients: []string{
				"300g red lentils",
				"2 carrots, diced",
				"1 onion, diced",
				"2 tsp ground cumin",
				"1.5L vegetable stock",
				"Juice of 1 lemon",
			},
			Steps: []string{
				"Sweat the onion and carrot with the cumin.",
				"Add lentils and stock, simmer for 25 minutes.",
				"Blend until smooth and finish with lemon juice.",
			},
			Tags: []string{"soup", "vegan", "budget"},
		},
		{
			Slug:     "banana-bread",
			Title:    "Banana Bread",
			Summary:  "Moist loaf made with overripe bananas and brown sugar.",
			Minutes:  70,
			Servings: 8,
			Ingredients: []string{
				"3 ripe bananas",
				"250g plain flour",
				"120g brown sugar",
				"2 eggs",
				"100g melted butter",
				"1 tsp baking soda",
			},
			Steps: []string{
				"Mash the bananas and whisk in eggs, sugar and butter.",
				"Fold in flour and baking soda.",
				"Bake in a lined loaf tin at 175C for 55 minutes.",
			},
			Tags: []string{"baking", "sweet"},
		},
	}
}
