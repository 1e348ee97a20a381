package mock

import (
	"github.com/beevik/etree"
)

// renderInvoiceXML synthesizes an FA(2) shaped invoice document for the
// stored invoice. Seller, buyer and the single line item are fixed
// placeholders, only the identifying fields come from the record.
func renderInvoiceXML(inv Invoice) ([]byte, error) {

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	faktura := doc.CreateElement("Faktura")
	faktura.CreateAttr("xmlns", "http://crd.gov.pl/wzor/2023/06/29/12648/")

	naglowek := faktura.CreateElement("Naglowek")
	naglowek.CreateElement("KodFormularza").SetText("FA")
	naglowek.CreateElement("WariantFormularza").SetText("2")
	naglowek.CreateElement("DataWytworzeniaFa").SetText(inv.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	naglowek.CreateElement("SystemInfo").SetText("KSeF Mock")

	sprzedawca := faktura.CreateElement("Podmiot1")
	sprzedawca.CreateElement("NIP").SetText(placeholderNip)
	sprzedawca.CreateElement("Nazwa").SetText("Testowy Sprzedawca Sp. z o.o.")

	nabywca := faktura.CreateElement("Podmiot2")
	nabywca.CreateElement("NIP").SetText("2222222222")
	nabywca.CreateElement("Nazwa").SetText("Testowy Nabywca S.A.")

	fa := faktura.CreateElement("Fa")
	fa.CreateElement("KodWaluty").SetText("PLN")
	fa.CreateElement("P_1").SetText(inv.CreatedAt.UTC().Format("2006-01-02"))
	fa.CreateElement("P_2").SetText(inv.InvoiceNumber)
	fa.CreateElement("KSeFReferenceNumber").SetText(inv.KsefReferenceNumber)

	wiersz := fa.CreateElement("FaWiersz")
	wiersz.CreateElement("NrWierszaFa").SetText("1")
	wiersz.CreateElement("P_7").SetText("Usługa testowa")
	wiersz.CreateElement("P_9A").SetText("1000.00")
	wiersz.CreateElement("P_11").SetText("1000.00")
	wiersz.CreateElement("P_12").SetText("23")

	doc.Indent(2)
	return doc.WriteToBytes()
}
