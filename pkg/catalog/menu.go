package catalog

import "github.com/shopspring/decimal"

const placeholderImage = "https://placehold.co/600x400.png"
const placeholderAvatar = "https://placehold.co/40x40.png"

// Default returns the restaurant's published menu.
func Default() *Catalog {
	c, err := New(
		Category{Slug: "menu", Name: "Menu", Dishes: menuDishes()},
		Category{Slug: "eid-specials", Name: "Eid Specials", Dishes: eidDishes()},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func menuDishes() []Dish {
	return []Dish{
		{
			ID:              1,
			Slug:            "chicken-karahi",
			Name:            "Chicken Karahi",
			NameUrdu:        "چکن کڑاہی",
			Description:     "A rich and spicy chicken curry cooked in a traditional karahi (wok).",
			LongDescription: "Chicken cooked with tomatoes, ginger, garlic and green chilies in a karahi, a staple of Pakistani homes and restaurants.",
			Image:           placeholderImage,
			AIHint:          "chicken karahi",
			Price:           decimal.NewFromInt(1250),
			Ingredients:     []string{"Chicken", "Tomatoes", "Ginger", "Garlic", "Green Chilies", "Coriander", "Spices"},
			Reviews: []Review{
				{ID: 1, Name: "Ahmed Khan", Avatar: placeholderAvatar, Rating: 5, Text: "The best chicken karahi I've had outside of Pakistan! Perfectly spiced."},
				{ID: 2, Name: "Fatima Ali", Avatar: placeholderAvatar, Rating: 4, Text: "Very delicious and authentic. Could be a little less oily."},
			},
		},
		{
			ID:              2,
			Slug:            "beef-biryani",
			Name:            "Beef Biryani",
			NameUrdu:        "بیف بریانی",
			Description:     "Fragrant basmati rice cooked with tender beef and aromatic spices.",
			LongDescription: "Layers of basmati rice and marinated beef with saffron, cardamom and cloves, garnished with fried onions and fresh herbs.",
			Image:           placeholderImage,
			AIHint:          "beef biryani",
			Price:           decimal.NewFromInt(1500),
			Ingredients:     []string{"Basmati Rice", "Beef", "Yogurt", "Onions", "Saffron", "Aromatic Spices", "Mint"},
			Reviews: []Review{
				{ID: 1, Name: "Usman Tariq", Avatar: placeholderAvatar, Rating: 5, Text: "Absolutely phenomenal biryani. The beef was so tender."},
			},
		},
		{
			ID:              3,
			Slug:            "chana-chaat",
			Name:            "Chana Chaat",
			NameUrdu:        "چنا چاٹ",
			Description:     "A refreshing and tangy chickpea salad with spices and chutneys.",
			LongDescription: "Boiled chickpeas, potatoes, onions and tomatoes tossed with spices and tamarind chutney. A popular street food snack.",
			Image:           placeholderImage,
			AIHint:          "chana chaat",
			Price:           decimal.NewFromInt(450),
			Ingredients:     []string{"Chickpeas", "Potatoes", "Onion", "Tomato", "Tamarind Chutney", "Yogurt", "Spices"},
		},
		{
			ID:              4,
			Slug:            "samosa",
			Name:            "Samosa",
			NameUrdu:        "سموسہ",
			Description:     "Crispy pastry filled with spiced potatoes, peas, and minced meat.",
			LongDescription: "A triangular fried pastry with a savory filling, served with mint or tamarind chutney.",
			Image:           placeholderImage,
			AIHint:          "samosas",
			Price:           decimal.NewFromInt(300),
			Ingredients:     []string{"Potatoes", "Peas", "Spices", "Flour Pastry", "Minced Meat (optional)"},
			Reviews: []Review{
				{ID: 1, Name: "Ayesha Malik", Avatar: placeholderAvatar, Rating: 5, Text: "Crispy, hot, and perfectly filled. The chutneys were amazing too!"},
			},
		},
	}
}

func eidDishes() []Dish {
	return []Dish{
		{
			ID:              101,
			Slug:            "sheer-khurma",
			Name:            "Sheer Khurma",
			NameUrdu:        "شیر خورمہ",
			Description:     "A rich vermicelli pudding made with milk, dates, and nuts.",
			LongDescription: "A festive vermicelli pudding sweetened and flavored with dates, pistachios, almonds and saffron.",
			Image:           placeholderImage,
			AIHint:          "sheer khurma",
			Price:           decimal.NewFromInt(750),
			Ingredients:     []string{"Vermicelli", "Milk", "Sugar", "Dates", "Pistachios", "Almonds", "Saffron"},
			Occasion:        "eid",
			Reviews: []Review{
				{ID: 1, Name: "Hassan Raza", Avatar: placeholderAvatar, Rating: 5, Text: "Just like my mother makes it for Eid."},
			},
		},
		{
			ID:              102,
			Slug:            "mutton-korma",
			Name:            "Mutton Korma",
			NameUrdu:        "مٹن قورمہ",
			Description:     "A luxurious mutton curry with a yogurt and spice-based sauce.",
			LongDescription: "Mutton slow-cooked in a creamy sauce of yogurt, fried onions and whole spices. Pairs with naan or rice.",
			Image:           placeholderImage,
			AIHint:          "mutton korma",
			Price:           decimal.NewFromInt(1800),
			Ingredients:     []string{"Mutton", "Yogurt", "Onions", "Ginger-Garlic Paste", "Whole Spices", "Kewra Water"},
			Occasion:        "eid",
			Reviews: []Review{
				{ID: 1, Name: "Zainab Iqbal", Avatar: placeholderAvatar, Rating: 5, Text: "The korma was out of this world!"},
			},
		},
	}
}
