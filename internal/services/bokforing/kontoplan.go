package bokforing

import "bokfor/internal/models"

func k(nr, beskrivning, kategori, sokord string) models.Konto {
	klass := map[byte]string{
		'1': "Tillgångar",
		'2': "Eget kapital och skulder",
		'3': "Rörelsens inkomster",
		'4': "Material och varor",
		'5': "Övriga externa kostnader",
		'6': "Övriga externa kostnader",
		'7': "Personal och avskrivningar",
		'8': "Finansiella poster",
	}[nr[0]]
	return models.Konto{Kontonummer: nr, Beskrivning: beskrivning, Kontoklass: klass, Kategori: kategori, Sokord: sokord}
}

// Kontoplan is the BAS subset seeded into konton. Every account referenced
// by a förval, invoice, expense or salary booking is present.
var Kontoplan = []models.Konto{
	k("1220", "Inventarier och verktyg", "Maskiner och inventarier", "dator inventarier verktyg"),
	k("1229", "Ackumulerade avskrivningar på inventarier", "Maskiner och inventarier", "avskrivning"),
	k("1460", "Lager av handelsvaror", "Varulager", "lager varor"),
	k("1510", "Kundfordringar", "Kundfordringar", "kund fordran faktura"),
	k("1513", "Kundfordringar – delad faktura", "Kundfordringar", "rot rut skatteverket fordran"),
	k("1630", "Avräkning för skatter och avgifter (skattekonto)", "Övriga fordringar", "skattekonto skatteverket"),
	k("1910", "Kassa", "Kassa och bank", "kontanter kassa"),
	k("1930", "Företagskonto / checkkonto / affärskonto", "Kassa och bank", "bank företagskonto"),
	k("2010", "Eget kapital", "Eget kapital", "eget kapital"),
	k("2013", "Övriga egna uttag", "Eget kapital", "uttag privat"),
	k("2018", "Övriga egna insättningar", "Eget kapital", "insättning privat"),
	k("2019", "Årets resultat", "Eget kapital", "resultat"),
	k("2081", "Aktiekapital", "Eget kapital", "aktiekapital"),
	k("2099", "Årets resultat (aktiebolag)", "Eget kapital", "resultat"),
	k("2350", "Övriga långfristiga skulder till kreditinstitut", "Långfristiga skulder", "lån bank"),
	k("2440", "Leverantörsskulder", "Kortfristiga skulder", "leverantör skuld"),
	k("2510", "Skatteskulder", "Kortfristiga skulder", "skatt skuld"),
	k("2611", "Utgående moms på försäljning inom Sverige, 25 %", "Moms", "moms utgående 25"),
	k("2614", "Utgående moms omvänd skattskyldighet, 25 %", "Moms", "moms omvänd utgående"),
	k("2621", "Utgående moms på försäljning inom Sverige, 12 %", "Moms", "moms utgående 12"),
	k("2631", "Utgående moms på försäljning inom Sverige, 6 %", "Moms", "moms utgående 6"),
	k("2641", "Debiterad ingående moms", "Moms", "moms ingående"),
	k("2645", "Beräknad ingående moms på förvärv från utlandet", "Moms", "moms ingående utland"),
	k("2650", "Redovisningskonto för moms", "Moms", "moms redovisning"),
	k("2710", "Personalskatt", "Personalens skatter", "skatt lön preliminärskatt"),
	k("2731", "Avräkning lagstadgade sociala avgifter", "Sociala avgifter", "arbetsgivaravgift sociala avgifter"),
	k("2890", "Övriga kortfristiga skulder", "Kortfristiga skulder", "utlägg skuld anställd"),
	k("2920", "Upplupna semesterlöner", "Upplupna kostnader", "semester"),
	k("3001", "Försäljning inom Sverige, 25 % moms", "Försäljning", "försäljning intäkt 25"),
	k("3002", "Försäljning inom Sverige, 12 % moms", "Försäljning", "försäljning intäkt 12"),
	k("3003", "Försäljning inom Sverige, 6 % moms", "Försäljning", "försäljning intäkt 6"),
	k("3004", "Försäljning inom Sverige, momsfri", "Försäljning", "försäljning momsfri"),
	k("3740", "Öres- och kronutjämning", "Försäljning", "öresavrundning"),
	k("4010", "Inköp av varor och material", "Varuinköp", "inköp varor material"),
	k("4531", "Import tjänster, 25 % moms", "Varuinköp", "import tjänst utland"),
	k("4535", "Inköp av tjänster från annat EU-land, 25 %", "Varuinköp", "eu tjänst"),
	k("5010", "Lokalhyra", "Lokalkostnader", "hyra lokal"),
	k("5410", "Förbrukningsinventarier", "Förbrukningsinventarier", "inventarier förbrukning"),
	k("5420", "Programvaror", "Förbrukningsinventarier", "programvara licens"),
	k("5611", "Drivmedel för personbilar", "Bilkostnader", "bensin diesel"),
	k("5615", "Leasing av personbilar", "Bilkostnader", "leasing bil"),
	k("5800", "Resekostnader", "Resekostnader", "resa tåg flyg hotell"),
	k("5910", "Annonsering", "Reklam", "annons reklam marknadsföring"),
	k("6071", "Representation, avdragsgill", "Representation", "representation lunch"),
	k("6110", "Kontorsmateriel", "Kontorsmateriel", "kontor material"),
	k("6212", "Mobiltelefon", "Tele", "mobil telefon"),
	k("6230", "Datakommunikation", "Tele", "internet bredband"),
	k("6250", "Postbefordran", "Tele", "porto post"),
	k("6530", "Redovisningstjänster", "Tjänster", "redovisning bokföring revisor"),
	k("6570", "Bankkostnader", "Tjänster", "bank avgift"),
	k("7210", "Löner till tjänstemän", "Löner", "lön"),
	k("7385", "Kostnader för fri bil", "Förmåner", "förmån bil"),
	k("7510", "Arbetsgivaravgifter", "Sociala avgifter", "arbetsgivaravgift"),
	k("7832", "Avskrivningar på inventarier och verktyg", "Avskrivningar", "avskrivning"),
	k("8310", "Ränteintäkter från omsättningstillgångar", "Finansiella intäkter", "ränta intäkt"),
	k("8410", "Räntekostnader för långfristiga skulder", "Finansiella kostnader", "ränta kostnad"),
	k("8999", "Årets resultat", "Årets resultat", "resultat"),
}
